package services

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"

	"gorm.io/gorm"

	apperrors "quarterdeck/internal/errors"
	"quarterdeck/internal/logger"
	"quarterdeck/internal/models"
	"quarterdeck/internal/pagination"
	"quarterdeck/internal/resources"
)

// wolPort is the conventional wake-on-LAN discard port.
const wolPort = 9

// hostService handles LAN hosts and wake-on-LAN.
type hostService struct {
	db *gorm.DB
}

// NewHostService creates a new HostServicer.
func NewHostService(db *gorm.DB) HostServicer {
	return &hostService{db: db}
}

// CreateHost creates a new host.
func (s *hostService) CreateHost(name, mac, ip, description string) (*models.Host, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "host name is required")
	}
	if err := s.checkName(name, 0); err != nil {
		return nil, err
	}

	host := &models.Host{
		Name:        name,
		MACAddress:  strings.ToLower(mac),
		IPAddress:   ip,
		Description: description,
	}
	if err := s.db.Create(host).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return host, nil
}

// GetHosts retrieves a paginated list of hosts.
func (s *hostService) GetHosts(page pagination.PageRequest) (*pagination.PageResponse[models.Host], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Host{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var hosts []models.Host
	if err := base.Order("name").Scopes(pagination.Paginate(page)).Find(&hosts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(hosts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetHostByID retrieves a host by ID.
func (s *hostService) GetHostByID(id uint) (*models.Host, error) {
	var host models.Host
	if err := s.db.First(&host, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrHostNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &host, nil
}

// UpdateHost updates an existing host.
func (s *hostService) UpdateHost(id uint, name, mac, ip, description string) (*models.Host, error) {
	host, err := s.GetHostByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" && name != host.Name {
		if err := s.checkName(name, id); err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if mac != "" {
		updates["mac_address"] = strings.ToLower(mac)
	}
	if ip != "" {
		updates["ip_address"] = ip
	}
	if description != "" {
		updates["description"] = description
	}

	if len(updates) > 0 {
		if err := s.db.Model(host).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return host, nil
}

// DeleteHost deletes a host.
func (s *hostService) DeleteHost(id uint) error {
	host, err := s.GetHostByID(id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(host).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Wake sends a wake-on-LAN magic packet to the host's MAC address, broadcast
// on the local network.
func (s *hostService) Wake(id uint) (*models.Host, error) {
	host, err := s.GetHostByID(id)
	if err != nil {
		return nil, err
	}
	if host.MACAddress == "" {
		return nil, apperrors.ErrMissingMAC
	}

	packet, err := magicPacket(host.MACAddress)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid MAC address "+host.MACAddress)
	}

	conn, err := net.Dial("udp", fmt.Sprintf("255.255.255.255:%d", wolPort))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer conn.Close()

	if _, err := conn.Write(packet); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("wake-on-LAN packet sent",
		"host", host.Name,
		"mac", host.MACAddress,
	)
	return host, nil
}

// magicPacket builds the 102-byte wake-on-LAN frame: 6 bytes of 0xFF
// followed by the MAC repeated 16 times.
func magicPacket(mac string) ([]byte, error) {
	cleaned := strings.NewReplacer(":", "", "-", "").Replace(mac)
	hw, err := hex.DecodeString(cleaned)
	if err != nil || len(hw) != 6 {
		return nil, fmt.Errorf("malformed MAC address %q", mac)
	}

	packet := make([]byte, 0, 102)
	for i := 0; i < 6; i++ {
		packet = append(packet, 0xFF)
	}
	for i := 0; i < 16; i++ {
		packet = append(packet, hw...)
	}
	return packet, nil
}

func (s *hostService) checkName(name string, excludeID uint) error {
	var count int64
	q := s.db.Model(&models.Host{}).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.WithMessage(apperrors.ErrNameConflict, "a host named "+name+" already exists")
	}
	return nil
}

// --- resources.Adapter ---

var hostFields = map[string]bool{
	"name":        true,
	"mac_address": true,
	"ip_address":  true,
	"description": true,
}

// Type implements resources.Adapter.
func (s *hostService) Type() resources.Type {
	return resources.TypeHost
}

// Get implements resources.Adapter.
func (s *hostService) Get(id uint) (resources.State, error) {
	host, err := s.GetHostByID(id)
	if err != nil {
		return nil, err
	}
	return resources.Snapshot(host)
}

// Create implements resources.Adapter.
func (s *hostService) Create(state resources.State) (uint, string, error) {
	var host models.Host
	if err := decodeState(state, &host); err != nil {
		return 0, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	host.Base = models.Base{}

	if err := s.checkName(host.Name, 0); err != nil {
		return 0, "", err
	}
	if err := s.db.Create(&host).Error; err != nil {
		return 0, "", apperrors.Wrap(apperrors.ErrAdapterFailure, err)
	}
	return host.ID, host.Name, nil
}

// Update implements resources.Adapter.
func (s *hostService) Update(id uint, fields resources.State) error {
	host, err := s.GetHostByID(id)
	if err != nil {
		return err
	}
	updates := filterFields(fields, hostFields)
	if name, ok := updates["name"].(string); ok && name != host.Name {
		if err := s.checkName(name, id); err != nil {
			return err
		}
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.db.Model(host).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrAdapterFailure, err)
	}
	return nil
}
