package models

// All lists every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Point{},
		&Badge{},
		&UserBadge{},
		&Subject{},
		&Project{},
		&ProjectSubmission{},
		&Challenge{},
		&ChallengeSubmission{},
		&Publication{},
		&Package{},
		&UserPackage{},
		&Payment{},
		&PaymentMirror{},
		&Booking{},
		&Certificate{},
		&Notification{},
	}
}
