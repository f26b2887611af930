package integration

import (
	"time"

	"cargopipe/internal/logger"
	"cargopipe/pkg/models"
)

func createTestLogger() logger.Logger {
	return logger.NopLogger()
}

func createTestRecord(messageID string) *models.LogisticsRecord {
	return &models.LogisticsRecord{
		LoadingAddress:     "Hafenstr. 1, 20457 Hamburg",
		UnloadingAddress:   "Industriepark 5, 80939 München",
		LoadingDate:        "2026-09-02",
		UnloadingDate:      "2026-09-03",
		LoadingCoordinates: &models.Coordinate{Lat: 53.5436, Lng: 9.9835},
		CargoDescription:   "3 pallets machine parts",
		Weight:             "1200 kg",
		VehicleType:        "7.5t box truck",

		MessageID:      messageID,
		MessageSubject: "Transport Hamburg-München",
		MessageSender:  "dispo@spedition.example",
		MessageDate:    time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
	}
}
