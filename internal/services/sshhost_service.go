package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "quarterdeck/internal/errors"
	"quarterdeck/internal/models"
	"quarterdeck/internal/pagination"
	"quarterdeck/internal/resources"
)

// sshHostService handles SSH connection entries.
type sshHostService struct {
	db *gorm.DB
}

// NewSSHHostService creates a new SSHHostServicer.
func NewSSHHostService(db *gorm.DB) SSHHostServicer {
	return &sshHostService{db: db}
}

// CreateSSHHost creates a new SSH host entry.
func (s *sshHostService) CreateSSHHost(name, hostname string, port int, username, password, privateKey string) (*models.SSHHost, error) {
	if name == "" || hostname == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name and hostname are required")
	}
	if err := s.checkName(name, 0); err != nil {
		return nil, err
	}
	if port == 0 {
		port = 22
	}

	host := &models.SSHHost{
		Name:       name,
		Hostname:   hostname,
		Port:       port,
		Username:   username,
		Password:   password,
		PrivateKey: privateKey,
	}
	if err := s.db.Create(host).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return host, nil
}

// GetSSHHosts retrieves a paginated list of SSH hosts.
func (s *sshHostService) GetSSHHosts(page pagination.PageRequest) (*pagination.PageResponse[models.SSHHost], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.SSHHost{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var hosts []models.SSHHost
	if err := base.Order("name").Scopes(pagination.Paginate(page)).Find(&hosts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(hosts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetSSHHostByID retrieves an SSH host by ID.
func (s *sshHostService) GetSSHHostByID(id uint) (*models.SSHHost, error) {
	var host models.SSHHost
	if err := s.db.First(&host, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSSHHostNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &host, nil
}

// UpdateSSHHost updates an existing SSH host entry. Empty credential values
// leave the stored credentials untouched.
func (s *sshHostService) UpdateSSHHost(id uint, name, hostname string, port int, username, password, privateKey string) (*models.SSHHost, error) {
	host, err := s.GetSSHHostByID(id)
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
	if hostname != "" {
		updates["hostname"] = hostname
	}
	if port != 0 {
		updates["port"] = port
	}
	if username != "" {
		updates["username"] = username
	}
	if password != "" {
		updates["password"] = password
	}
	if privateKey != "" {
		updates["private_key"] = privateKey
	}

	if len(updates) > 0 {
		if err := s.db.Model(host).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return host, nil
}

// DeleteSSHHost deletes an SSH host entry. The delete snapshot never carries
// the credentials, so a restored entry comes back without them.
func (s *sshHostService) DeleteSSHHost(id uint) error {
	host, err := s.GetSSHHostByID(id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(host).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *sshHostService) checkName(name string, excludeID uint) error {
	var count int64
	q := s.db.Model(&models.SSHHost{}).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.WithMessage(apperrors.ErrNameConflict, "an SSH host named "+name+" already exists")
	}
	return nil
}

// --- resources.Adapter ---

var sshHostFields = map[string]bool{
	"name":        true,
	"hostname":    true,
	"port":        true,
	"username":    true,
	"password":    true,
	"private_key": true,
}

// Type implements resources.Adapter.
func (s *sshHostService) Type() resources.Type {
	return resources.TypeSSHHost
}

// Get implements resources.Adapter. The returned state includes the
// credential fields so the capturer can detect changes; the capturer masks
// them before anything is stored.
func (s *sshHostService) Get(id uint) (resources.State, error) {
	host, err := s.GetSSHHostByID(id)
	if err != nil {
		return nil, err
	}
	state, err := resources.Snapshot(host)
	if err != nil {
		return nil, err
	}
	if host.Password != "" {
		state["password"] = host.Password
	}
	if host.PrivateKey != "" {
		state["private_key"] = host.PrivateKey
	}
	return state, nil
}

// Create implements resources.Adapter.
func (s *sshHostService) Create(state resources.State) (uint, string, error) {
	var host models.SSHHost
	if err := decodeState(state, &host); err != nil {
		return 0, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	host.Base = models.Base{}
	if host.Port == 0 {
		host.Port = 22
	}

	if err := s.checkName(host.Name, 0); err != nil {
		return 0, "", err
	}
	if err := s.db.Create(&host).Error; err != nil {
		return 0, "", apperrors.Wrap(apperrors.ErrAdapterFailure, err)
	}
	return host.ID, host.Name, nil
}

// Update implements resources.Adapter.
func (s *sshHostService) Update(id uint, fields resources.State) error {
	host, err := s.GetSSHHostByID(id)
	if err != nil {
		return err
	}
	updates := filterFields(fields, sshHostFields)
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
