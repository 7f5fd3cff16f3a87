package models

// Record is implemented by every synchronized collection model.
type Record interface {
	TableName() string
	RecordID() string
}

// LocalModels lists every table of the embedded store, in migration order.
func LocalModels() []any {
	return append(SyncedModels(),
		&SyncOutbox{},
		&SyncDeadLetter{},
		&Setting{},
	)
}

// SyncedModels lists the collections mirrored to the remote store.
func SyncedModels() []any {
	return []any{
		&GreenCoffeeLot{},
		&RoastBatch{},
		&RoastedStock{},
		&RetailBagStock{},
		&Order{},
		&ProductionActivity{},
		&ProductionInventoryItem{},
		&Expense{},
		&CuppingSession{},
		&UserProfile{},
	}
}
