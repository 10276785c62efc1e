package main

import (
	"os"
	"strconv"
)

type Config struct {
	MongoURI  string
	MongoDB   string
	JWTSecret string
	Port      string

	// Mapping engine tunables; zero means the engine defaults apply.
	MinSpacingMeters       float64
	ClosureToleranceMeters float64
}

func mustConfig() Config {
	cfg := Config{
		MongoURI:               getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:                getenv("MONGO_DB", "fieldmapper"),
		JWTSecret:              getenv("JWT_SECRET", "change_me"),
		Port:                   getenv("PORT", "8080"),
		MinSpacingMeters:       getenvFloat("MAPPING_MIN_SPACING_METERS", 0),
		ClosureToleranceMeters: getenvFloat("MAPPING_CLOSURE_TOLERANCE_METERS", 0),
	}

	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
