// Package mocks provides testify mocks for the kds use case interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	cryptoService "github.com/allisson/kds/internal/crypto/service"
	kdsDomain "github.com/allisson/kds/internal/kds/domain"
)

// MockKeyStore is a mock implementation of usecase.KeyStore.
type MockKeyStore struct {
	mock.Mock
}

func (m *MockKeyStore) SetSharedKey(ctx context.Context, id string, blob []byte) error {
	args := m.Called(ctx, id, blob)
	return args.Error(0)
}

func (m *MockKeyStore) GetSharedKey(ctx context.Context, id string) ([]byte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockPrincipalKeyManager is a mock implementation of usecase.PrincipalKeyManager.
type MockPrincipalKeyManager struct {
	mock.Mock
}

func (m *MockPrincipalKeyManager) DeriveKeyMaterial(principalID string) (cryptoService.KeyMaterial, error) {
	args := m.Called(principalID)
	return args.Get(0).(cryptoService.KeyMaterial), args.Error(1)
}

func (m *MockPrincipalKeyManager) GetLongTermSecret(ctx context.Context, principalID string) ([]byte, error) {
	args := m.Called(ctx, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Callers zero the returned secret.
	secret := append([]byte(nil), args.Get(0).([]byte)...)
	return secret, args.Error(1)
}

func (m *MockPrincipalKeyManager) SetLongTermSecret(ctx context.Context, principalID string, secret []byte) error {
	args := m.Called(ctx, principalID, secret)
	return args.Error(0)
}

// MockKDSUseCase is a mock implementation of usecase.KDSUseCase.
type MockKDSUseCase struct {
	mock.Mock
}

func (m *MockKDSUseCase) GetInfo(ctx context.Context) string {
	args := m.Called(ctx)
	return args.String(0)
}

func (m *MockKDSUseCase) GetSessionKey(
	ctx context.Context,
	req *kdsDomain.SessionRequest,
) (*kdsDomain.SessionReply, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kdsDomain.SessionReply), args.Error(1)
}

func (m *MockKDSUseCase) SetKey(ctx context.Context, principalID string, secret []byte) error {
	args := m.Called(ctx, principalID, secret)
	return args.Error(0)
}
