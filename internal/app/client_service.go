package app

import (
	"errors"
	"strings"

	"botforge/internal/model"
)

var ErrClientNotFound = errors.New("client not found")

// ClientStore is the persistence surface ClientService needs.
type ClientStore interface {
	Create(client *model.Client) error
	GetByID(id uint) (*model.Client, error)
	List() ([]model.Client, error)
	Update(client *model.Client) error
	Delete(id uint) error
}

type ClientService struct {
	clients ClientStore
}

func NewClientService(clients ClientStore) *ClientService {
	return &ClientService{clients: clients}
}

type ClientInput struct {
	Name       string
	Notes      string
	TokenLimit *int64
}

func (s *ClientService) Create(input ClientInput) (*model.Client, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	if input.TokenLimit != nil && *input.TokenLimit < 0 {
		return nil, ErrInvalidInput
	}

	client := &model.Client{
		Name:       name,
		Notes:      strings.TrimSpace(input.Notes),
		TokenLimit: input.TokenLimit,
	}
	if err := s.clients.Create(client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *ClientService) Get(id uint) (*model.Client, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	client, err := s.clients.GetByID(id)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, ErrClientNotFound
	}
	return client, nil
}

func (s *ClientService) List() ([]model.Client, error) {
	return s.clients.List()
}

func (s *ClientService) Update(id uint, input ClientInput) (*model.Client, error) {
	client, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		client.Name = name
	}
	client.Notes = strings.TrimSpace(input.Notes)
	if input.TokenLimit != nil && *input.TokenLimit < 0 {
		return nil, ErrInvalidInput
	}
	client.TokenLimit = input.TokenLimit

	if err := s.clients.Update(client); err != nil {
		return nil, err
	}
	return client, nil
}

// SetTokenLimit replaces the client's advisory monthly ceiling. A nil
// limit removes it.
func (s *ClientService) SetTokenLimit(id uint, limit *int64) (*model.Client, error) {
	client, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if limit != nil && *limit < 0 {
		return nil, ErrInvalidInput
	}
	client.TokenLimit = limit
	if err := s.clients.Update(client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *ClientService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.clients.Delete(id)
}
