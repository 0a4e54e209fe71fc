package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	auditRepository "github.com/allisson/fileguard/internal/audit/repository"
	auditService "github.com/allisson/fileguard/internal/audit/service"
	auditUseCase "github.com/allisson/fileguard/internal/audit/usecase"
	cleanupDomain "github.com/allisson/fileguard/internal/cleanup/domain"
	cleanupUseCase "github.com/allisson/fileguard/internal/cleanup/usecase"
	filesRepository "github.com/allisson/fileguard/internal/files/repository"
	filesUseCase "github.com/allisson/fileguard/internal/files/usecase"
	quarantineRepository "github.com/allisson/fileguard/internal/quarantine/repository"
	quarantineUseCase "github.com/allisson/fileguard/internal/quarantine/usecase"
	scanService "github.com/allisson/fileguard/internal/scan/service"
	scanUseCase "github.com/allisson/fileguard/internal/scan/usecase"
)

// tempMaxAge is how old a temp file must be before the sweep removes it.
const tempMaxAge = 24 * time.Hour

// pipelineComponents holds the lazily initialized security pipeline.
type pipelineComponents struct {
	auditRepoInit      sync.Once
	auditUseCaseInit   sync.Once
	scanUseCaseInit    sync.Once
	quarantineRepoInit sync.Once
	quarantineInit     sync.Once
	fileRepoInit       sync.Once
	shareRepoInit      sync.Once
	fileUseCaseInit    sync.Once
	cleanupInit        sync.Once

	auditRepo      auditUseCase.EventRepository
	auditUseCase   auditUseCase.UseCase
	scanUseCase    scanUseCase.UseCase
	quarantineRepo quarantineUseCase.RecordRepository
	quarantineUC   quarantineUseCase.UseCase
	fileRepo       filesUseCase.FileRepository
	shareRepo      filesUseCase.ShareRepository
	fileUseCase    filesUseCase.UseCase
	cleanupUseCase cleanupUseCase.UseCase
}

// AuditEventRepository returns the audit event repository instance.
func (c *Container) AuditEventRepository(ctx context.Context) (auditUseCase.EventRepository, error) {
	c.pipeline.auditRepoInit.Do(func() {
		db, err := c.DB(ctx)
		if err != nil {
			c.initErrors["auditRepo"] = fmt.Errorf("failed to get database for audit repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.pipeline.auditRepo = auditRepository.NewMySQLAuditEventRepository(db)
		case "postgres":
			c.pipeline.auditRepo = auditRepository.NewPostgreSQLAuditEventRepository(db)
		default:
			c.initErrors["auditRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["auditRepo"]; exists {
		return nil, err
	}
	return c.pipeline.auditRepo, nil
}

// AuditUseCase returns the audit trail use case instance.
func (c *Container) AuditUseCase(ctx context.Context) (auditUseCase.UseCase, error) {
	c.pipeline.auditUseCaseInit.Do(func() {
		repo, err := c.AuditEventRepository(ctx)
		if err != nil {
			c.initErrors["auditUseCase"] = fmt.Errorf("failed to get audit repository: %w", err)
			return
		}

		var signingKey []byte
		if c.config.AuditSigningKey != "" {
			signingKey, err = base64.StdEncoding.DecodeString(c.config.AuditSigningKey)
			if err != nil {
				c.initErrors["auditUseCase"] = fmt.Errorf("failed to decode audit signing key: %w", err)
				return
			}
		}

		c.pipeline.auditUseCase = auditUseCase.NewAuditUseCase(repo, auditService.NewAuditSigner(), signingKey)
	})
	if err, exists := c.initErrors["auditUseCase"]; exists {
		return nil, err
	}
	return c.pipeline.auditUseCase, nil
}

// ScanUseCase returns the scan orchestrator instance. The engine probe runs
// once on first access.
func (c *Container) ScanUseCase(ctx context.Context) (scanUseCase.UseCase, error) {
	c.pipeline.scanUseCaseInit.Do(func() {
		reporter, err := c.AuditUseCase(ctx)
		if err != nil {
			c.initErrors["scanUseCase"] = fmt.Errorf("failed to get audit use case for scanner: %w", err)
			return
		}
		bm, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["scanUseCase"] = fmt.Errorf("failed to get metrics for scanner: %w", err)
			return
		}

		client := scanService.NewClamdClient(
			c.config.ScanEngineHost,
			c.config.ScanEnginePort,
			c.config.ScanProbeTimeout,
			c.config.ScanTimeout,
		)
		updater := scanService.NewDefinitionsUpdater("freshclam", c.config.DefinitionsUpdateTimeout)

		uc := scanUseCase.NewScanUseCase(
			ctx,
			c.config.AntivirusEnabled,
			client,
			c.config.TempScanPath,
			updater,
			reporter,
			c.config.ScanFailClosed,
			c.config.ScanRateLimitPerSec,
			c.config.ScanRateLimitBurst,
		)
		c.pipeline.scanUseCase = scanUseCase.NewScanUseCaseWithMetrics(uc, bm)
	})
	if err, exists := c.initErrors["scanUseCase"]; exists {
		return nil, err
	}
	return c.pipeline.scanUseCase, nil
}

// QuarantineRecordRepository returns the quarantine record repository instance.
func (c *Container) QuarantineRecordRepository(ctx context.Context) (quarantineUseCase.RecordRepository, error) {
	c.pipeline.quarantineRepoInit.Do(func() {
		db, err := c.DB(ctx)
		if err != nil {
			c.initErrors["quarantineRepo"] = fmt.Errorf("failed to get database for quarantine repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.pipeline.quarantineRepo = quarantineRepository.NewMySQLRecordRepository(db)
		case "postgres":
			c.pipeline.quarantineRepo = quarantineRepository.NewPostgreSQLRecordRepository(db)
		default:
			c.initErrors["quarantineRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["quarantineRepo"]; exists {
		return nil, err
	}
	return c.pipeline.quarantineRepo, nil
}

// QuarantineUseCase returns the quarantine manager instance.
func (c *Container) QuarantineUseCase(ctx context.Context) (quarantineUseCase.UseCase, error) {
	c.pipeline.quarantineInit.Do(func() {
		repo, err := c.QuarantineRecordRepository(ctx)
		if err != nil {
			c.initErrors["quarantineUseCase"] = fmt.Errorf("failed to get quarantine repository: %w", err)
			return
		}
		engine, err := c.EnvelopeEngine(ctx)
		if err != nil {
			c.initErrors["quarantineUseCase"] = fmt.Errorf("failed to get envelope engine for quarantine: %w", err)
			return
		}
		reporter, err := c.AuditUseCase(ctx)
		if err != nil {
			c.initErrors["quarantineUseCase"] = fmt.Errorf("failed to get audit use case for quarantine: %w", err)
			return
		}
		txManager, err := c.TxManager(ctx)
		if err != nil {
			c.initErrors["quarantineUseCase"] = fmt.Errorf("failed to get transaction manager for quarantine: %w", err)
			return
		}

		c.pipeline.quarantineUC = quarantineUseCase.NewQuarantineUseCase(
			repo,
			engine,
			c.SecureDeleter(),
			reporter,
			txManager,
			c.config.QuarantinePath,
		)
	})
	if err, exists := c.initErrors["quarantineUseCase"]; exists {
		return nil, err
	}
	return c.pipeline.quarantineUC, nil
}

// FileRepository returns the file metadata repository instance.
func (c *Container) FileRepository(ctx context.Context) (filesUseCase.FileRepository, error) {
	c.pipeline.fileRepoInit.Do(func() {
		db, err := c.DB(ctx)
		if err != nil {
			c.initErrors["fileRepo"] = fmt.Errorf("failed to get database for file repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.pipeline.fileRepo = filesRepository.NewMySQLFileRepository(db)
		case "postgres":
			c.pipeline.fileRepo = filesRepository.NewPostgreSQLFileRepository(db)
		default:
			c.initErrors["fileRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["fileRepo"]; exists {
		return nil, err
	}
	return c.pipeline.fileRepo, nil
}

// ShareRepository returns the share repository instance.
func (c *Container) ShareRepository(ctx context.Context) (filesUseCase.ShareRepository, error) {
	c.pipeline.shareRepoInit.Do(func() {
		db, err := c.DB(ctx)
		if err != nil {
			c.initErrors["shareRepo"] = fmt.Errorf("failed to get database for share repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.pipeline.shareRepo = filesRepository.NewMySQLShareRepository(db)
		case "postgres":
			c.pipeline.shareRepo = filesRepository.NewPostgreSQLShareRepository(db)
		default:
			c.initErrors["shareRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["shareRepo"]; exists {
		return nil, err
	}
	return c.pipeline.shareRepo, nil
}

// FileUseCase returns the file pipeline instance.
func (c *Container) FileUseCase(ctx context.Context) (filesUseCase.UseCase, error) {
	c.pipeline.fileUseCaseInit.Do(func() {
		fileRepo, err := c.FileRepository(ctx)
		if err != nil {
			c.initErrors["fileUseCase"] = fmt.Errorf("failed to get file repository: %w", err)
			return
		}
		shareRepo, err := c.ShareRepository(ctx)
		if err != nil {
			c.initErrors["fileUseCase"] = fmt.Errorf("failed to get share repository: %w", err)
			return
		}
		scanner, err := c.ScanUseCase(ctx)
		if err != nil {
			c.initErrors["fileUseCase"] = fmt.Errorf("failed to get scan use case: %w", err)
			return
		}
		quarantine, err := c.QuarantineUseCase(ctx)
		if err != nil {
			c.initErrors["fileUseCase"] = fmt.Errorf("failed to get quarantine use case: %w", err)
			return
		}
		engine, err := c.EnvelopeEngine(ctx)
		if err != nil {
			c.initErrors["fileUseCase"] = fmt.Errorf("failed to get envelope engine: %w", err)
			return
		}
		store, err := c.ObjectStore(ctx)
		if err != nil {
			c.initErrors["fileUseCase"] = fmt.Errorf("failed to get object store: %w", err)
			return
		}
		bm, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["fileUseCase"] = fmt.Errorf("failed to get metrics for file pipeline: %w", err)
			return
		}

		uc := filesUseCase.NewFileUseCase(fileRepo, shareRepo, scanner, quarantine, engine, store)
		c.pipeline.fileUseCase = filesUseCase.NewFileUseCaseWithMetrics(uc, bm)
	})
	if err, exists := c.initErrors["fileUseCase"]; exists {
		return nil, err
	}
	return c.pipeline.fileUseCase, nil
}

// CleanupUseCase returns the cleanup scheduler instance. Setup is left to the
// caller so commands can choose between scheduled and manual dispatch.
func (c *Container) CleanupUseCase(ctx context.Context) (cleanupUseCase.UseCase, error) {
	c.pipeline.cleanupInit.Do(func() {
		files, err := c.FileUseCase(ctx)
		if err != nil {
			c.initErrors["cleanupUseCase"] = fmt.Errorf("failed to get file use case: %w", err)
			return
		}
		audit, err := c.AuditUseCase(ctx)
		if err != nil {
			c.initErrors["cleanupUseCase"] = fmt.Errorf("failed to get audit use case: %w", err)
			return
		}
		quarantine, err := c.QuarantineUseCase(ctx)
		if err != nil {
			c.initErrors["cleanupUseCase"] = fmt.Errorf("failed to get quarantine use case: %w", err)
			return
		}
		scanner, err := c.ScanUseCase(ctx)
		if err != nil {
			c.initErrors["cleanupUseCase"] = fmt.Errorf("failed to get scan use case: %w", err)
			return
		}

		c.pipeline.cleanupUseCase = cleanupUseCase.NewCleanupUseCase(
			files,
			audit,
			quarantine,
			scanner,
			c.SecureDeleter(),
			cleanupDomain.Policy{
				AuditRetentionDays:         c.config.AuditRetentionDays,
				SecurityAuditRetentionDays: c.config.SecurityAuditRetentionDays,
				QuarantineRetentionDays:    c.config.QuarantineRetentionDays,
				TempMaxAge:                 tempMaxAge,
				TempPaths:                  []string{c.config.TempPath, c.config.TempScanPath},
				QuotaBytes:                 c.config.StorageQuotaBytes,
			},
		)
	})
	if err, exists := c.initErrors["cleanupUseCase"]; exists {
		return nil, err
	}
	return c.pipeline.cleanupUseCase, nil
}
