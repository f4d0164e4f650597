package app

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/kds/internal/crypto/domain"
	cryptoService "github.com/allisson/kds/internal/crypto/service"
)

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// KMSService returns the KMS service used to wrap the master key file.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// SymmetricCrypto returns the configured encryption and signing provider.
func (c *Container) SymmetricCrypto() (*cryptoService.SymmetricCryptoService, error) {
	var err error
	c.symmetricCryptoInit.Do(func() {
		c.symmetricCrypto, err = c.initSymmetricCrypto()
		if err != nil {
			c.initErrors["symmetricCrypto"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["symmetricCrypto"]; exists {
		return nil, storedErr
	}
	return c.symmetricCrypto, nil
}

// KeyDerivation returns the HKDF service for the configured hash.
func (c *Container) KeyDerivation() (*cryptoService.HKDFService, error) {
	var err error
	c.keyDerivationInit.Do(func() {
		c.keyDerivation, err = c.initKeyDerivation()
		if err != nil {
			c.initErrors["keyDerivation"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyDerivation"]; exists {
		return nil, storedErr
	}
	return c.keyDerivation, nil
}

// MasterKey returns the master key, creating the key file on first start.
func (c *Container) MasterKey() (*cryptoDomain.MasterKey, error) {
	var err error
	c.masterKeyInit.Do(func() {
		c.masterKey, err = c.initMasterKey()
		if err != nil {
			c.initErrors["masterKey"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["masterKey"]; exists {
		return nil, storedErr
	}
	return c.masterKey, nil
}

// MasterKeyLoader returns a loader for the configured master key file.
// It is not cached; the create-master-key command uses it directly.
func (c *Container) MasterKeyLoader() (*cryptoService.FileMasterKeyLoader, error) {
	crypto, err := c.SymmetricCrypto()
	if err != nil {
		return nil, fmt.Errorf("failed to get symmetric crypto for master key loader: %w", err)
	}

	var kmsService cryptoService.KMSService
	if c.config.KMSKeyURI != "" {
		kmsService = c.KMSService()
	}

	return cryptoService.NewFileMasterKeyLoader(
		c.config.MasterKeyLocation,
		c.config.KeySize,
		crypto,
		kmsService,
		c.config.KMSKeyURI,
		c.Logger(),
	)
}

func (c *Container) initSymmetricCrypto() (*cryptoService.SymmetricCryptoService, error) {
	crypto, err := cryptoService.NewSymmetricCrypto(
		c.AEADManager(),
		cryptoDomain.Algorithm(c.config.EncryptionAlgorithm),
		cryptoDomain.HashAlgorithm(c.config.HashAlgorithm),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric crypto: %w", err)
	}
	return crypto, nil
}

func (c *Container) initKeyDerivation() (*cryptoService.HKDFService, error) {
	kdf, err := cryptoService.NewHKDF(cryptoDomain.HashAlgorithm(c.config.HashAlgorithm))
	if err != nil {
		return nil, fmt.Errorf("failed to create key derivation: %w", err)
	}
	return kdf, nil
}

func (c *Container) initMasterKey() (*cryptoDomain.MasterKey, error) {
	loader, err := c.MasterKeyLoader()
	if err != nil {
		return nil, fmt.Errorf("failed to create master key loader: %w", err)
	}

	masterKey, err := loader.LoadOrCreate(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load master key: %w", err)
	}
	return masterKey, nil
}
