package models

import (
	"log"

	"bitbucket.org/mmdatafocus/billing_recon/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Billing{}, &BillingBatch{},
		&LedgerEntry{},
		&WebhookEvent{},
		&SettlementFileRun{}, &SettlementRowDetail{},
		&BankAccount{},
		&NotificationRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
