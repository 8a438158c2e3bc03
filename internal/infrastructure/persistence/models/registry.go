package models

// All returns every persistence model managed by the service, for AutoMigrate in
// tests and local tooling. Production schemas come from the SQL migrations.
func All() []any {
	return []any{
		&AccountModel{},
		&ClassificationModel{},
		&AccountingSettingsModel{},
		&JournalEntryModel{},
		&JournalLineModel{},
		&JournalSequenceModel{},
		&GLAccountMappingModel{},
		&UnmappedEventModel{},
		&IdempotencyKeyModel{},
		&AuditEntryModel{},
		&InvoiceModel{},
		&ReceiptModel{},
		&AllocationModel{},
		&OutboxEntryModel{},
	}
}
