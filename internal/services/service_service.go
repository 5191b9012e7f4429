package services

import (
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	apperrors "quarterdeck/internal/errors"
	"quarterdeck/internal/models"
	"quarterdeck/internal/pagination"
	"quarterdeck/internal/resources"
)

// serviceService handles dashboard service tiles.
type serviceService struct {
	db *gorm.DB
}

// NewServiceService creates a new ServiceServicer.
func NewServiceService(db *gorm.DB) ServiceServicer {
	return &serviceService{db: db}
}

// CreateService creates a new service tile.
func (s *serviceService) CreateService(name, url, icon, description string, categoryID *uint) (*models.Service, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "service name is required")
	}
	if err := s.checkName(name, 0); err != nil {
		return nil, err
	}

	if categoryID != nil {
		var count int64
		if err := s.db.Model(&models.Category{}).Where("id = ?", *categoryID).Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return nil, apperrors.ErrCategoryNotFound
		}
	}

	service := &models.Service{
		Name:        name,
		URL:         url,
		Icon:        icon,
		Description: description,
		CategoryID:  categoryID,
	}
	if err := s.db.Create(service).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return service, nil
}

// GetServices retrieves a paginated list of services.
func (s *serviceService) GetServices(page pagination.PageRequest) (*pagination.PageResponse[models.Service], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Service{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var services []models.Service
	if err := base.Order("name").Scopes(pagination.Paginate(page)).Find(&services).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(services, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetServiceByID retrieves a service by ID.
func (s *serviceService) GetServiceByID(id uint) (*models.Service, error) {
	var service models.Service
	if err := s.db.First(&service, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrServiceNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &service, nil
}

// UpdateService updates an existing service tile.
func (s *serviceService) UpdateService(id uint, name, url, icon, description string, categoryID *uint) (*models.Service, error) {
	service, err := s.GetServiceByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" && name != service.Name {
		if err := s.checkName(name, id); err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if url != "" {
		updates["url"] = url
	}
	if icon != "" {
		updates["icon"] = icon
	}
	if description != "" {
		updates["description"] = description
	}
	if categoryID != nil {
		updates["category_id"] = categoryID
	}

	if len(updates) > 0 {
		if err := s.db.Model(service).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return service, nil
}

// DeleteService deletes a service tile. The delete snapshot in the audit
// trail is the recovery path.
func (s *serviceService) DeleteService(id uint) error {
	service, err := s.GetServiceByID(id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(service).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// checkName enforces the natural-key uniqueness of service names. excludeID
// skips the resource being renamed.
func (s *serviceService) checkName(name string, excludeID uint) error {
	var count int64
	q := s.db.Model(&models.Service{}).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.WithMessage(apperrors.ErrNameConflict, "a service named "+name+" already exists")
	}
	return nil
}

// --- resources.Adapter ---

// serviceFields is the set of snapshot keys the adapter may write back.
var serviceFields = map[string]bool{
	"name":        true,
	"url":         true,
	"icon":        true,
	"description": true,
	"category_id": true,
}

// Type implements resources.Adapter.
func (s *serviceService) Type() resources.Type {
	return resources.TypeService
}

// Get implements resources.Adapter.
func (s *serviceService) Get(id uint) (resources.State, error) {
	service, err := s.GetServiceByID(id)
	if err != nil {
		return nil, err
	}
	return resources.Snapshot(service)
}

// Create implements resources.Adapter: it rebuilds a service from a delete
// snapshot, assigning a fresh id.
func (s *serviceService) Create(state resources.State) (uint, string, error) {
	var service models.Service
	if err := decodeState(state, &service); err != nil {
		return 0, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	service.Base = models.Base{}

	if err := s.checkName(service.Name, 0); err != nil {
		return 0, "", err
	}
	if err := s.db.Create(&service).Error; err != nil {
		return 0, "", apperrors.Wrap(apperrors.ErrAdapterFailure, err)
	}
	return service.ID, service.Name, nil
}

// Update implements resources.Adapter.
func (s *serviceService) Update(id uint, fields resources.State) error {
	service, err := s.GetServiceByID(id)
	if err != nil {
		return err
	}
	updates := filterFields(fields, serviceFields)
	if name, ok := updates["name"].(string); ok && name != service.Name {
		if err := s.checkName(name, id); err != nil {
			return err
		}
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.db.Model(service).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrAdapterFailure, err)
	}
	return nil
}

// decodeState rebuilds a model from a snapshot state via its JSON form.
func decodeState(state resources.State, out any) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// filterFields keeps only the snapshot keys the adapter may write back.
func filterFields(fields resources.State, allowed map[string]bool) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if allowed[k] {
			out[k] = v
		}
	}
	return out
}
