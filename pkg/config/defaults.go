package config

// defaultConfig is the built-in configuration the loaded file merges over.
func defaultConfig() *Config {
	headless := true
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Cache: CacheConfig{
			MemoryCapacity:  1000,
			WarmSchedule:    "0 3 * * *",
			WarmConcurrency: 10,
		},
		Browser: BrowserConfig{
			Headless: &headless,
		},
		Inventory: InventoryConfig{
			Concurrency: 8,
		},
		Scrape: ScrapeConfig{
			Timeout: "15s",
		},
	}
}
