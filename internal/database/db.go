package database

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/remoteradar/remote-radar/internal/models"
)

// Connect opens the Postgres connection and runs migrations. The pgvector
// extension must exist before job_documents can migrate, so it is created
// first.
func Connect(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	log.Println("Database connection established")

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		log.Fatal("Failed to enable pgvector extension:", err)
	}

	log.Println("Running Migrations...")
	if err := db.AutoMigrate(&models.Job{}, &models.JobDocument{}, &models.User{}); err != nil {
		log.Fatal("Migration failed:", err)
	}
	return db
}
