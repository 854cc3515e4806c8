package store

import (
	"context"
	"errors"

	"github.com/netdevopsbr/proxbox/internal/store/model"
	"gorm.io/gorm"
)

type NetBoxEndpoint interface {
	List(ctx context.Context) (model.NetBoxEndpointList, error)
	Get(ctx context.Context, id uint) (*model.NetBoxEndpoint, error)
	Create(ctx context.Context, endpoint model.NetBoxEndpoint) (*model.NetBoxEndpoint, error)
	Update(ctx context.Context, endpoint model.NetBoxEndpoint) (*model.NetBoxEndpoint, error)
	Delete(ctx context.Context, id uint) error
	InitialMigration() error
}

type NetBoxEndpointStore struct {
	db *gorm.DB
}

// Make sure we conform to NetBoxEndpoint interface
var _ NetBoxEndpoint = (*NetBoxEndpointStore)(nil)

func NewNetBoxEndpointStore(db *gorm.DB) NetBoxEndpoint {
	return &NetBoxEndpointStore{db: db}
}

func (s *NetBoxEndpointStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.NetBoxEndpoint{})
}

func (s *NetBoxEndpointStore) List(ctx context.Context) (model.NetBoxEndpointList, error) {
	var endpoints model.NetBoxEndpointList
	result := s.db.WithContext(ctx).Model(&model.NetBoxEndpoint{}).Order("id").Find(&endpoints)
	if result.Error != nil {
		return nil, result.Error
	}
	return endpoints, nil
}

func (s *NetBoxEndpointStore) Get(ctx context.Context, id uint) (*model.NetBoxEndpoint, error) {
	var endpoint model.NetBoxEndpoint
	result := s.db.WithContext(ctx).First(&endpoint, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &endpoint, nil
}

func (s *NetBoxEndpointStore) Create(ctx context.Context, endpoint model.NetBoxEndpoint) (*model.NetBoxEndpoint, error) {
	result := s.db.WithContext(ctx).Create(&endpoint)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &endpoint, nil
}

func (s *NetBoxEndpointStore) Update(ctx context.Context, endpoint model.NetBoxEndpoint) (*model.NetBoxEndpoint, error) {
	existing, err := s.Get(ctx, endpoint.ID)
	if err != nil {
		return nil, err
	}
	endpoint.CreatedAt = existing.CreatedAt
	result := s.db.WithContext(ctx).Save(&endpoint)
	if result.Error != nil {
		return nil, result.Error
	}
	return &endpoint, nil
}

func (s *NetBoxEndpointStore) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Unscoped().Delete(&model.NetBoxEndpoint{}, id)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

type ProxmoxEndpoint interface {
	List(ctx context.Context) (model.ProxmoxEndpointList, error)
	Get(ctx context.Context, id uint) (*model.ProxmoxEndpoint, error)
	Create(ctx context.Context, endpoint model.ProxmoxEndpoint) (*model.ProxmoxEndpoint, error)
	Update(ctx context.Context, endpoint model.ProxmoxEndpoint) (*model.ProxmoxEndpoint, error)
	Delete(ctx context.Context, id uint) error
	InitialMigration() error
}

type ProxmoxEndpointStore struct {
	db *gorm.DB
}

// Make sure we conform to ProxmoxEndpoint interface
var _ ProxmoxEndpoint = (*ProxmoxEndpointStore)(nil)

func NewProxmoxEndpointStore(db *gorm.DB) ProxmoxEndpoint {
	return &ProxmoxEndpointStore{db: db}
}

func (s *ProxmoxEndpointStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.ProxmoxEndpoint{})
}

func (s *ProxmoxEndpointStore) List(ctx context.Context) (model.ProxmoxEndpointList, error) {
	var endpoints model.ProxmoxEndpointList
	result := s.db.WithContext(ctx).Model(&model.ProxmoxEndpoint{}).Order("id").Find(&endpoints)
	if result.Error != nil {
		return nil, result.Error
	}
	return endpoints, nil
}

func (s *ProxmoxEndpointStore) Get(ctx context.Context, id uint) (*model.ProxmoxEndpoint, error) {
	var endpoint model.ProxmoxEndpoint
	result := s.db.WithContext(ctx).First(&endpoint, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &endpoint, nil
}

func (s *ProxmoxEndpointStore) Create(ctx context.Context, endpoint model.ProxmoxEndpoint) (*model.ProxmoxEndpoint, error) {
	result := s.db.WithContext(ctx).Create(&endpoint)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &endpoint, nil
}

func (s *ProxmoxEndpointStore) Update(ctx context.Context, endpoint model.ProxmoxEndpoint) (*model.ProxmoxEndpoint, error) {
	existing, err := s.Get(ctx, endpoint.ID)
	if err != nil {
		return nil, err
	}
	endpoint.CreatedAt = existing.CreatedAt
	result := s.db.WithContext(ctx).Save(&endpoint)
	if result.Error != nil {
		return nil, result.Error
	}
	return &endpoint, nil
}

func (s *ProxmoxEndpointStore) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Unscoped().Delete(&model.ProxmoxEndpoint{}, id)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
