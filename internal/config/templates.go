package config

import (
	"fmt"
	"os"
)

// Template returns a starter daemon config.
func Template() string {
	return daemonTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(daemonTemplate), 0o600)
}

const daemonTemplate = `name = "wirectl"
addr = ":9200"
cors_origins = ["http://localhost:3000"]

[storage]
backend = "sqlite"
path = "wirectl.db"

[client]
api_id = 12345
api_hash = "0123456789abcdef0123456789abcdef"
database_directory = "wirectl-data"
use_test_dc = false
use_file_database = true
use_secret_chats = false

[scheduler]
id = 0
count = 4
`
