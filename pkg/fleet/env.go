package fleet

import (
	"fmt"
	"os"

	"github.com/flowcommand/flowcommand/pkg/models"
)

// EnvInstances reads instances configured through numbered environment
// variables: N8N_NAME_1, N8N_URL_1, N8N_KEY_1, then _2 and so on, stopping
// at the first incomplete triple. These instances are merged into the fleet
// view but never written to the store, so credentials passed through the
// environment stay out of the data directory.
func EnvInstances() []models.Instance {
	var instances []models.Instance

	for i := 1; ; i++ {
		name := os.Getenv(fmt.Sprintf("N8N_NAME_%d", i))
		url := os.Getenv(fmt.Sprintf("N8N_URL_%d", i))
		apiKey := os.Getenv(fmt.Sprintf("N8N_KEY_%d", i))

		if name == "" || url == "" || apiKey == "" {
			return instances
		}

		instances = append(instances, models.Instance{
			ID:     fmt.Sprintf("env-%d", i),
			Name:   name,
			URL:    url,
			APIKey: apiKey,
		})
	}
}
