package boot

import (
	"boxoffice/src/config"
	"boxoffice/src/db"
	"boxoffice/src/lib"
	"boxoffice/src/models"
	"boxoffice/src/utils"
	"log"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.Venue{},
		&models.SeatingLayout{},
		&models.Seat{},
		&models.Show{},
		&models.Performance{},
		&models.Customer{},
		&models.Booking{},
		&models.BookingItem{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	if err := MigrateConstraints(db); err != nil {
		log.Fatalf("error creating constraints: %s", err.Error())
	}

	return db
}

// MigrateConstraints adds the store-level guards AutoMigrate cannot
// express. The partial unique index is what actually prevents two active
// line items from holding the same seat for one performance; the pre-check
// in the Reservation Writer only reduces how often callers hit it.
func MigrateConstraints(db *gorm.DB) error {
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_seat_per_performance
		ON booking_items (performance_id, seat_id)
		WHERE active;
	`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_booking_items_booking_id
		ON booking_items (booking_id);
	`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_performance_status
		ON bookings (performance_id, status);
	`).Error
	if err != nil {
		return err
	}

	return nil
}

// InitScheduler starts the recurring sweep that releases expired
// reservation holds.
func InitScheduler() {
	jobId, err := lib.CreateCronJob(utils.SweepExpiredHolds, config.HOLD_SWEEP_INTERVAL)
	if err != nil {
		log.Printf("Error scheduling hold sweep: %s\n", err.Error())
		return
	}
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	log.Printf("Scheduled hold sweep job: %s\n", *jobId)
	sched.Start()
}
