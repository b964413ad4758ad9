package givehub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient implements Client with per-operation function fields so
// each test wires only what it exercises.
type fakeClient struct {
	listFn     func(ctx context.Context) ([]Campaign, error)
	findFn     func(ctx context.Context, id int64) (Campaign, error)
	createFn   func(ctx context.Context, draft CampaignDraft, image *ImageUpload) (Campaign, error)
	updateFn   func(ctx context.Context, id int64, patch CampaignPatch) (Campaign, error)
	deleteFn   func(ctx context.Context, id int64) error
	searchFn   func(ctx context.Context, query string, page, size int) (SearchResponse, error)
	addMediaFn func(ctx context.Context, id int64, base64Image string) (Media, error)
}

func (f *fakeClient) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	return f.listFn(ctx)
}

func (f *fakeClient) FindCampaign(ctx context.Context, id int64) (Campaign, error) {
	return f.findFn(ctx, id)
}

func (f *fakeClient) CreateCampaign(ctx context.Context, draft CampaignDraft, image *ImageUpload) (Campaign, error) {
	return f.createFn(ctx, draft, image)
}

func (f *fakeClient) UpdateCampaign(ctx context.Context, id int64, patch CampaignPatch) (Campaign, error) {
	return f.updateFn(ctx, id, patch)
}

func (f *fakeClient) DeleteCampaign(ctx context.Context, id int64) error {
	return f.deleteFn(ctx, id)
}

func (f *fakeClient) SearchCampaigns(ctx context.Context, query string, page, size int) (SearchResponse, error) {
	return f.searchFn(ctx, query, page, size)
}

func (f *fakeClient) AddCampaignMedia(ctx context.Context, id int64, base64Image string) (Media, error) {
	return f.addMediaFn(ctx, id, base64Image)
}

func seededStore(t *testing.T, client *fakeClient, seed []Campaign) *Store {
	t.Helper()

	store := NewStore(client, nil)

	original := client.listFn
	client.listFn = func(ctx context.Context) ([]Campaign, error) {
		return seed, nil
	}
	require.True(t, store.FetchAll(context.Background()))
	client.listFn = original

	return store
}

func TestStoreFetchAll(t *testing.T) {
	t.Run("replaces the list wholesale", func(t *testing.T) {
		client := &fakeClient{}
		store := seededStore(t, client, []Campaign{{ID: 1}, {ID: 2}})

		client.listFn = func(ctx context.Context) ([]Campaign, error) {
			return []Campaign{{ID: 3}}, nil
		}

		require.True(t, store.FetchAll(context.Background()))

		campaigns := store.Campaigns()
		require.Len(t, campaigns, 1)
		assert.Equal(t, int64(3), campaigns[0].ID)
		assert.Empty(t, store.Err())
		assert.False(t, store.Loading())
	})

	t.Run("failure records message and keeps the cache", func(t *testing.T) {
		client := &fakeClient{}
		store := seededStore(t, client, []Campaign{{ID: 1}})

		client.listFn = func(ctx context.Context) ([]Campaign, error) {
			return nil, errors.New("network unreachable")
		}

		require.False(t, store.FetchAll(context.Background()))

		assert.Equal(t, "network unreachable", store.Err())
		assert.Len(t, store.Campaigns(), 1)
		assert.False(t, store.Loading())
	})

	t.Run("does not touch the current selection", func(t *testing.T) {
		client := &fakeClient{
			findFn: func(ctx context.Context, id int64) (Campaign, error) {
				return Campaign{ID: id}, nil
			},
		}
		store := seededStore(t, client, nil)
		require.NotNil(t, store.FetchCampaign(context.Background(), 5))

		client.listFn = func(ctx context.Context) ([]Campaign, error) {
			return []Campaign{{ID: 1}}, nil
		}
		require.True(t, store.FetchAll(context.Background()))

		require.NotNil(t, store.Current())
		assert.Equal(t, int64(5), store.Current().ID)
	})
}

func TestStoreFetchCampaign(t *testing.T) {
	client := &fakeClient{
		findFn: func(ctx context.Context, id int64) (Campaign, error) {
			return Campaign{ID: id, Title: "Details"}, nil
		},
	}
	store := seededStore(t, client, []Campaign{{ID: 1}})

	got := store.FetchCampaign(context.Background(), 9)
	require.NotNil(t, got)
	assert.Equal(t, int64(9), got.ID)

	// Sets the selection without merging into the cached list.
	require.NotNil(t, store.Current())
	assert.Equal(t, int64(9), store.Current().ID)
	assert.Len(t, store.Campaigns(), 1)
}

func TestStoreCreate(t *testing.T) {
	t.Run("appends only after confirmation", func(t *testing.T) {
		client := &fakeClient{
			createFn: func(ctx context.Context, draft CampaignDraft, image *ImageUpload) (Campaign, error) {
				return Campaign{ID: 3, Title: draft.Title}, nil
			},
		}
		store := seededStore(t, client, []Campaign{{ID: 1}, {ID: 2}})

		created := store.Create(context.Background(), CampaignDraft{Title: "New"}, nil)
		require.NotNil(t, created)
		assert.Equal(t, int64(3), created.ID)

		campaigns := store.Campaigns()
		require.Len(t, campaigns, 3)
		assert.Equal(t, int64(3), campaigns[2].ID)

		withID := 0
		for _, c := range campaigns {
			if c.ID == 3 {
				withID++
			}
		}
		assert.Equal(t, 1, withID)
	})

	t.Run("failure leaves the list untouched", func(t *testing.T) {
		client := &fakeClient{
			createFn: func(ctx context.Context, draft CampaignDraft, image *ImageUpload) (Campaign, error) {
				return Campaign{}, errors.New("backend error 422: title required")
			},
		}
		store := seededStore(t, client, []Campaign{{ID: 1}})

		assert.Nil(t, store.Create(context.Background(), CampaignDraft{}, nil))
		assert.Len(t, store.Campaigns(), 1)
		assert.Equal(t, "backend error 422: title required", store.Err())
	})

	t.Run("echoed existing ID replaces instead of duplicating", func(t *testing.T) {
		client := &fakeClient{
			createFn: func(ctx context.Context, draft CampaignDraft, image *ImageUpload) (Campaign, error) {
				return Campaign{ID: 2, Title: "Echoed"}, nil
			},
		}
		store := seededStore(t, client, []Campaign{{ID: 1}, {ID: 2}})

		require.NotNil(t, store.Create(context.Background(), CampaignDraft{Title: "Echoed"}, nil))

		campaigns := store.Campaigns()
		require.Len(t, campaigns, 2)
		assert.Equal(t, "Echoed", campaigns[1].Title)
	})
}

func TestStoreUpdate(t *testing.T) {
	client := &fakeClient{
		findFn: func(ctx context.Context, id int64) (Campaign, error) {
			return Campaign{ID: id, Title: "Before"}, nil
		},
		updateFn: func(ctx context.Context, id int64, patch CampaignPatch) (Campaign, error) {
			return Campaign{ID: id, Title: *patch.Title}, nil
		},
	}
	store := seededStore(t, client, []Campaign{{ID: 1, Title: "Before"}, {ID: 2}})
	require.NotNil(t, store.FetchCampaign(context.Background(), 1))

	title := "After"
	updated := store.Update(context.Background(), 1, CampaignPatch{Title: &title})
	require.NotNil(t, updated)

	campaigns := store.Campaigns()
	require.Len(t, campaigns, 2)
	assert.Equal(t, "After", campaigns[0].Title)
	assert.Equal(t, int64(2), campaigns[1].ID)

	// The matching selection is replaced in the same transition.
	require.NotNil(t, store.Current())
	assert.Equal(t, "After", store.Current().Title)
}

func TestStoreUpdateLeavesOtherSelectionAlone(t *testing.T) {
	client := &fakeClient{
		findFn: func(ctx context.Context, id int64) (Campaign, error) {
			return Campaign{ID: id, Title: "Other"}, nil
		},
		updateFn: func(ctx context.Context, id int64, patch CampaignPatch) (Campaign, error) {
			return Campaign{ID: id, Title: "Changed"}, nil
		},
	}
	store := seededStore(t, client, []Campaign{{ID: 1}, {ID: 2}})
	require.NotNil(t, store.FetchCampaign(context.Background(), 2))

	require.NotNil(t, store.Update(context.Background(), 1, CampaignPatch{}))

	require.NotNil(t, store.Current())
	assert.Equal(t, "Other", store.Current().Title)
}

func TestStoreDelete(t *testing.T) {
	t.Run("removes exactly one entry", func(t *testing.T) {
		client := &fakeClient{
			deleteFn: func(ctx context.Context, id int64) error { return nil },
		}
		store := seededStore(t, client, []Campaign{{ID: 1}, {ID: 2}, {ID: 3}})

		require.True(t, store.Delete(context.Background(), 2))

		campaigns := store.Campaigns()
		require.Len(t, campaigns, 2)
		assert.Equal(t, int64(1), campaigns[0].ID)
		assert.Equal(t, int64(3), campaigns[1].ID)
	})

	t.Run("clears a matching selection atomically", func(t *testing.T) {
		client := &fakeClient{
			findFn: func(ctx context.Context, id int64) (Campaign, error) {
				return Campaign{ID: id}, nil
			},
			deleteFn: func(ctx context.Context, id int64) error { return nil },
		}
		store := seededStore(t, client, []Campaign{{ID: 1}})
		require.NotNil(t, store.FetchCampaign(context.Background(), 1))

		require.True(t, store.Delete(context.Background(), 1))

		assert.Empty(t, store.Campaigns())
		assert.Nil(t, store.Current())
	})

	t.Run("remote rejection reports failure and keeps the list", func(t *testing.T) {
		client := &fakeClient{
			deleteFn: func(ctx context.Context, id int64) error {
				return &GatewayError{Code: 404, Message: "no such campaign"}
			},
		}
		store := seededStore(t, client, []Campaign{{ID: 1}})

		require.False(t, store.Delete(context.Background(), 99))

		assert.Len(t, store.Campaigns(), 1)
		assert.Contains(t, store.Err(), "no such campaign")
	})
}

func TestStoreSearch(t *testing.T) {
	client := &fakeClient{
		searchFn: func(ctx context.Context, query string, page, size int) (SearchResponse, error) {
			return SearchResponse{Total: 1, Page: page, Size: size, Data: []Campaign{{ID: 7}}}, nil
		},
	}
	store := seededStore(t, client, []Campaign{{ID: 1}})

	results := store.Search(context.Background(), "wells", 1, 20)
	require.NotNil(t, results)
	assert.Equal(t, 1, results.Total)

	// Search results live beside the campaign list, never inside it.
	assert.Len(t, store.Campaigns(), 1)
	require.NotNil(t, store.SearchResults())
	assert.Equal(t, int64(7), store.SearchResults().Data[0].ID)
}

func TestStoreAddMedia(t *testing.T) {
	pngPayload := []byte("\x89PNG\r\n\x1a\nrest of image")

	t.Run("appends to a matching selection only", func(t *testing.T) {
		client := &fakeClient{
			findFn: func(ctx context.Context, id int64) (Campaign, error) {
				return Campaign{ID: id}, nil
			},
			addMediaFn: func(ctx context.Context, id int64, base64Image string) (Media, error) {
				assert.True(t, len(base64Image) > 0)
				return Media{ID: 40, Base64Image: base64Image}, nil
			},
		}
		store := seededStore(t, client, []Campaign{{ID: 1}})
		require.NotNil(t, store.FetchCampaign(context.Background(), 1))

		media := store.AddMedia(context.Background(), 1, ImageUpload{Name: "a.png", Data: pngPayload})
		require.NotNil(t, media)

		require.NotNil(t, store.Current())
		require.Len(t, store.Current().Media, 1)
		assert.Equal(t, int64(40), store.Current().Media[0].ID)

		// The cached list entry stays stale until the next FetchAll.
		assert.Empty(t, store.Campaigns()[0].Media)
	})

	t.Run("different selection is left alone", func(t *testing.T) {
		client := &fakeClient{
			findFn: func(ctx context.Context, id int64) (Campaign, error) {
				return Campaign{ID: id}, nil
			},
			addMediaFn: func(ctx context.Context, id int64, base64Image string) (Media, error) {
				return Media{ID: 41}, nil
			},
		}
		store := seededStore(t, client, []Campaign{{ID: 1}, {ID: 2}})
		require.NotNil(t, store.FetchCampaign(context.Background(), 2))

		require.NotNil(t, store.AddMedia(context.Background(), 1, ImageUpload{Name: "a.png", Data: pngPayload}))

		require.NotNil(t, store.Current())
		assert.Empty(t, store.Current().Media)
	})

	t.Run("encoding failure never reaches the backend", func(t *testing.T) {
		called := false
		client := &fakeClient{
			addMediaFn: func(ctx context.Context, id int64, base64Image string) (Media, error) {
				called = true
				return Media{}, nil
			},
		}
		store := seededStore(t, client, nil)

		assert.Nil(t, store.AddMedia(context.Background(), 1, ImageUpload{Name: "empty.png"}))
		assert.False(t, called)
		assert.Contains(t, store.Err(), "empty image payload")
	})
}

func TestStoreSubscribe(t *testing.T) {
	client := &fakeClient{
		listFn: func(ctx context.Context) ([]Campaign, error) {
			return []Campaign{{ID: 1}}, nil
		},
	}
	store := NewStore(client, nil)

	var snapshots []Snapshot
	cancel := store.Subscribe(func(s Snapshot) {
		snapshots = append(snapshots, s)
	})

	require.True(t, store.FetchAll(context.Background()))

	// One transition into loading, one out of it.
	require.Len(t, snapshots, 2)
	assert.True(t, snapshots[0].Loading)
	assert.False(t, snapshots[1].Loading)
	assert.Len(t, snapshots[1].Campaigns, 1)

	cancel()
	require.True(t, store.FetchAll(context.Background()))
	assert.Len(t, snapshots, 2)
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	client := &fakeClient{}
	store := seededStore(t, client, []Campaign{{ID: 1, Title: "Original", Deadline: timePtr(time.Now())}})

	campaigns := store.Campaigns()
	campaigns[0].Title = "Mutated"

	assert.Equal(t, "Original", store.Campaigns()[0].Title)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
