package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultHTTPTimeout = 10 * time.Second
	DefaultCallTimeout = 30 * time.Second
)

const (
	CacheKeyPrefixGeocode = "geocode:"
)

// Custom data keys shared between the address cleaning and geocoding
// steps. The cleaner writes, the geocoder prefers the cleaned value.
const (
	CustomDataCleanedLoadingAddress    = "cleaned_loading_address"
	CustomDataOriginalLoadingAddress   = "original_loading_address"
	CustomDataCleanedUnloadingAddress  = "cleaned_unloading_address"
	CustomDataOriginalUnloadingAddress = "original_unloading_address"
)

const (
	DefaultOrderEventsTopic = "order_ingested"
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultMaxBatchSize = 50
	DefaultTruncateLen  = 100
)

const (
	DefaultGeocodeCacheTTLSeconds = 86400
)

const (
	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300
)

// Step execution order. Orders are spaced contiguously; the executor
// rejects duplicates at construction.
const (
	OrderClassification  = 1
	OrderExtraction      = 2
	OrderAddressCleaning = 3
	OrderGeocoding       = 4
	OrderPersistence     = 5
	OrderPublish         = 6
)
