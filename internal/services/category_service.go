package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "quarterdeck/internal/errors"
	"quarterdeck/internal/models"
	"quarterdeck/internal/pagination"
	"quarterdeck/internal/resources"
)

// categoryService handles dashboard categories.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category.
func (s *categoryService) CreateCategory(name, icon, color string) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if err := s.checkName(name, 0); err != nil {
		return nil, err
	}

	category := &models.Category{Name: name, Icon: icon, Color: color}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// GetCategories retrieves a paginated list of categories.
func (s *categoryService) GetCategories(page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Category{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Order("name").Scopes(pagination.Paginate(page)).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID retrieves a category by ID.
func (s *categoryService) GetCategoryByID(id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates an existing category.
func (s *categoryService) UpdateCategory(id uint, name, icon, color string) (*models.Category, error) {
	category, err := s.GetCategoryByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" && name != category.Name {
		if err := s.checkName(name, id); err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if icon != "" {
		updates["icon"] = icon
	}
	if color != "" {
		updates["color"] = color
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return category, nil
}

// DeleteCategory deletes a category. Categories still referenced by services
// cannot be deleted; the operator reassigns the services first.
func (s *categoryService) DeleteCategory(id uint) error {
	category, err := s.GetCategoryByID(id)
	if err != nil {
		return err
	}

	var inUse int64
	if err := s.db.Model(&models.Service{}).Where("category_id = ?", id).Count(&inUse).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inUse > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *categoryService) checkName(name string, excludeID uint) error {
	var count int64
	q := s.db.Model(&models.Category{}).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.WithMessage(apperrors.ErrNameConflict, "a category named "+name+" already exists")
	}
	return nil
}

// --- resources.Adapter ---

var categoryFields = map[string]bool{
	"name":  true,
	"icon":  true,
	"color": true,
}

// Type implements resources.Adapter.
func (s *categoryService) Type() resources.Type {
	return resources.TypeCategory
}

// Get implements resources.Adapter.
func (s *categoryService) Get(id uint) (resources.State, error) {
	category, err := s.GetCategoryByID(id)
	if err != nil {
		return nil, err
	}
	return resources.Snapshot(category)
}

// Create implements resources.Adapter.
func (s *categoryService) Create(state resources.State) (uint, string, error) {
	var category models.Category
	if err := decodeState(state, &category); err != nil {
		return 0, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	category.Base = models.Base{}

	if err := s.checkName(category.Name, 0); err != nil {
		return 0, "", err
	}
	if err := s.db.Create(&category).Error; err != nil {
		return 0, "", apperrors.Wrap(apperrors.ErrAdapterFailure, err)
	}
	return category.ID, category.Name, nil
}

// Update implements resources.Adapter.
func (s *categoryService) Update(id uint, fields resources.State) error {
	category, err := s.GetCategoryByID(id)
	if err != nil {
		return err
	}
	updates := filterFields(fields, categoryFields)
	if name, ok := updates["name"].(string); ok && name != category.Name {
		if err := s.checkName(name, id); err != nil {
			return err
		}
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.db.Model(category).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrAdapterFailure, err)
	}
	return nil
}
