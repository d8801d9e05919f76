package infra

import (
	"fmt"

	"entrepeques/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies any idempotent SQL patches that GORM
// cannot express (CHECK constraints, partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates / updates the schema. Shared with the integration
// tests, which open their own container-backed connection.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Cliente{},
		&model.Subcategoria{},
		&model.FactorValuacion{},
		&model.PrecioRopa{},
		&model.TallaRopa{},
		&model.DefinicionCaracteristica{},
		&model.Valuacion{},
		&model.ValuacionItem{},
		&model.RegistroConsignacion{},
		&model.UnidadInventario{},
		&model.MovimientoStock{},
		&model.Venta{},
		&model.VentaItem{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement is guarded so re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Stock can never go negative; the sale transaction relies on this as
		// a last line of defense behind the row lock.
		{"check unidades_inventario.cantidad >= 0", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_unidades_cantidad_no_negativa') THEN
    ALTER TABLE unidades_inventario
      ADD CONSTRAINT chk_unidades_cantidad_no_negativa CHECK (cantidad >= 0);
  END IF;
END $$`},
		// Consignor share is a percentage.
		{"check registros_consignacion.porcentaje in range", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_consignacion_porcentaje') THEN
    ALTER TABLE registros_consignacion
      ADD CONSTRAINT chk_consignacion_porcentaje
      CHECK (porcentaje_consignacion > 0 AND porcentaje_consignacion <= 100);
  END IF;
END $$`},
		// Partial index for the expiry sweep: only available records age.
		{"partial index on available consignment records", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_consignacion_disponibles_listado') THEN
    CREATE INDEX idx_consignacion_disponibles_listado
        ON registros_consignacion (fecha_listado)
        WHERE estado = 'available';
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
