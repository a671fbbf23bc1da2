package repositories_test

import (
	"sync"
	"testing"

	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/stretchr/testify/require"
)

func TestMemoryProductRepository(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	runProductRepositoryTests(t, repo)
}

// The map store is the backing store in demo mode, so concurrent saves
// and reads must not race and every save must get a distinct ID.
func TestMemoryProductRepositoryConcurrentSaves(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := models.Product{Name: "Widget", Category: "Tools"}
			if err := repo.Save(&p); err != nil {
				t.Error(err)
			}
			if _, err := repo.FindByCategory("Tools"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	count, err := repo.Count()
	require.NoError(t, err)
	require.EqualValues(t, 50, count)
}
