package store

import (
	"gorm.io/gorm"
)

type Store interface {
	NetBoxEndpoint() NetBoxEndpoint
	ProxmoxEndpoint() ProxmoxEndpoint
	InitialMigration() error
	Close() error
}

type DataStore struct {
	netboxEndpoint  NetBoxEndpoint
	proxmoxEndpoint ProxmoxEndpoint
	db              *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		netboxEndpoint:  NewNetBoxEndpointStore(db),
		proxmoxEndpoint: NewProxmoxEndpointStore(db),
		db:              db,
	}
}

func (s *DataStore) NetBoxEndpoint() NetBoxEndpoint {
	return s.netboxEndpoint
}

func (s *DataStore) ProxmoxEndpoint() ProxmoxEndpoint {
	return s.proxmoxEndpoint
}

func (s *DataStore) InitialMigration() error {
	if err := s.netboxEndpoint.InitialMigration(); err != nil {
		return err
	}
	return s.proxmoxEndpoint.InitialMigration()
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
