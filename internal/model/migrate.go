package model

import "gorm.io/gorm"

// AutoMigrate migrates every entity of the booking core.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Farmer{},
		&Machine{},
		&Booking{},
		&BookingOTP{},
		&Session{},
		&MessageLog{},
	)
}
