package db

import (
	"gorm.io/gorm"

	"github.com/notedive/notedive-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Courses + lectures
		&domain.Course{},
		&domain.Lecture{},

		// Rotation analysis trace
		&domain.RotationStateRecord{},

		// Thread graph
		&domain.Thread{},
		&domain.ThreadOccurrence{},
		&domain.ThreadUpdate{},

		// Async execution
		&domain.JobRun{},
	)
}
