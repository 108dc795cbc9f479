package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("HARBOR_TEST_MODE") == "" {
			_ = os.Setenv("HARBOR_TEST_MODE", "1")
		}
	})
}
