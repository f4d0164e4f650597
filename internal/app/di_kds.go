package app

import (
	"context"
	"fmt"

	"github.com/allisson/kds/internal/config"
	kdsHTTP "github.com/allisson/kds/internal/kds/http"
	kdsRepository "github.com/allisson/kds/internal/kds/repository"
	kdsService "github.com/allisson/kds/internal/kds/service"
	kdsUseCase "github.com/allisson/kds/internal/kds/usecase"
)

// KeyStore is a persistent key store that can also answer readiness probes.
type KeyStore interface {
	kdsUseCase.KeyStore
	Ping(ctx context.Context) error
}

// KeyStore returns the key store selected by KEY_STORE_DRIVER.
func (c *Container) KeyStore() (KeyStore, error) {
	var err error
	c.keyStoreInit.Do(func() {
		c.keyStore, err = c.initKeyStore()
		if err != nil {
			c.initErrors["keyStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyStore"]; exists {
		return nil, storedErr
	}
	return c.keyStore, nil
}

// PrincipalKeyManager returns the manager that seals and opens stored key records.
func (c *Container) PrincipalKeyManager() (kdsUseCase.PrincipalKeyManager, error) {
	var err error
	c.keyManagerInit.Do(func() {
		c.keyManager, err = c.initPrincipalKeyManager()
		if err != nil {
			c.initErrors["keyManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyManager"]; exists {
		return nil, storedErr
	}
	return c.keyManager, nil
}

// Protocol returns the wire protocol helpers shared by the server and clients.
func (c *Container) Protocol() (*kdsService.Protocol, error) {
	var err error
	c.protocolInit.Do(func() {
		c.protocol, err = c.initProtocol()
		if err != nil {
			c.initErrors["protocol"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["protocol"]; exists {
		return nil, storedErr
	}
	return c.protocol, nil
}

// AdminTokenService returns the service that hashes and verifies the admin token.
func (c *Container) AdminTokenService() kdsService.AdminTokenService {
	c.adminTokenServiceInit.Do(func() {
		c.adminTokenService = kdsService.NewAdminTokenService()
	})
	return c.adminTokenService
}

// KDSUseCase returns the key distribution use case, wrapped with metrics when enabled.
func (c *Container) KDSUseCase() (kdsUseCase.KDSUseCase, error) {
	var err error
	c.kdsUseCaseInit.Do(func() {
		c.kdsUseCase, err = c.initKDSUseCase()
		if err != nil {
			c.initErrors["kdsUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["kdsUseCase"]; exists {
		return nil, storedErr
	}
	return c.kdsUseCase, nil
}

// KDSHandler returns the HTTP handler for /v1/kds routes.
func (c *Container) KDSHandler() (*kdsHTTP.KDSHandler, error) {
	var err error
	c.kdsHandlerInit.Do(func() {
		c.kdsHandler, err = c.initKDSHandler()
		if err != nil {
			c.initErrors["kdsHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["kdsHandler"]; exists {
		return nil, storedErr
	}
	return c.kdsHandler, nil
}

func (c *Container) initKeyStore() (KeyStore, error) {
	switch c.config.KeyStoreDriver {
	case config.KeyStoreMemory:
		c.Logger().Warn("using in-memory key store; keys are lost on restart")
		return kdsRepository.NewMemoryKeyStore(), nil
	case config.KeyStorePostgres, config.KeyStoreMySQL:
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for key store: %w", err)
		}
		if c.config.KeyStoreDriver == config.KeyStoreMySQL {
			return kdsRepository.NewMySQLKeyStore(db), nil
		}
		return kdsRepository.NewPostgreSQLKeyStore(db), nil
	case config.KeyStoreVault:
		store, err := kdsRepository.NewVaultKeyStore(
			c.config.VaultAddress,
			c.config.VaultToken,
			c.config.VaultMountPath,
			c.config.VaultDataPath,
			c.Logger(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create vault key store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported key store driver: %s", c.config.KeyStoreDriver)
	}
}

func (c *Container) initPrincipalKeyManager() (kdsUseCase.PrincipalKeyManager, error) {
	masterKey, err := c.MasterKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get master key for key manager: %w", err)
	}

	crypto, err := c.SymmetricCrypto()
	if err != nil {
		return nil, fmt.Errorf("failed to get symmetric crypto for key manager: %w", err)
	}

	kdf, err := c.KeyDerivation()
	if err != nil {
		return nil, fmt.Errorf("failed to get key derivation for key manager: %w", err)
	}

	keyStore, err := c.KeyStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get key store for key manager: %w", err)
	}

	return kdsUseCase.NewPrincipalKeyManager(masterKey, crypto, kdf, keyStore, c.config.KeySize), nil
}

func (c *Container) initProtocol() (*kdsService.Protocol, error) {
	crypto, err := c.SymmetricCrypto()
	if err != nil {
		return nil, fmt.Errorf("failed to get symmetric crypto for protocol: %w", err)
	}

	kdf, err := c.KeyDerivation()
	if err != nil {
		return nil, fmt.Errorf("failed to get key derivation for protocol: %w", err)
	}

	return kdsService.NewProtocol(crypto, kdf, c.config.KeySize), nil
}

func (c *Container) initKDSUseCase() (kdsUseCase.KDSUseCase, error) {
	keyManager, err := c.PrincipalKeyManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get key manager for kds use case: %w", err)
	}

	protocol, err := c.Protocol()
	if err != nil {
		return nil, fmt.Errorf("failed to get protocol for kds use case: %w", err)
	}

	baseUseCase := kdsUseCase.NewKDSUseCase(keyManager, protocol, c.config.TicketLifetime)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for kds use case: %w", err)
		}
		return kdsUseCase.NewKDSUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func (c *Container) initKDSHandler() (*kdsHTTP.KDSHandler, error) {
	useCase, err := c.KDSUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get kds use case for handler: %w", err)
	}
	return kdsHTTP.NewKDSHandler(useCase, c.Logger()), nil
}
