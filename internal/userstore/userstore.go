package userstore

import (
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/database"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/models"
)

// Store persists the local user profile and preferences in the shared
// database. There is exactly one profile; it is created on first access.
type Store struct {
	db *database.DB
}

// FavoritesCapability is an optional extension a profile store may support.
// The shipped store does not; callers must type-assert before use.
type FavoritesCapability interface {
	AddFavorite(userID, mediaID string) error
	RemoveFavorite(userID, mediaID string) error
	ListFavorites(userID string) ([]string, error)
	CreatePlaylist(userID, name string, mediaIDs []string) error
}

// New builds a Store over an open database.
func New(db *database.DB) *Store {
	return &Store{db: db}
}

// CurrentUser returns the local profile, creating and persisting the default
// one on first use.
func (s *Store) CurrentUser() (models.UserProfile, error) {
	raw, err := s.db.Get(database.UserKey(models.DefaultUserID))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return s.bootstrap()
		}
		return models.UserProfile{}, fmt.Errorf("error loading user profile: %w", err)
	}

	var profile models.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return models.UserProfile{}, fmt.Errorf("error decoding user profile: %w", err)
	}
	return profile, nil
}

// UpdatePreferences merges the given preferences into the stored profile.
// The read and the write are two separate database operations; concurrent
// updates resolve as last write wins.
func (s *Store) UpdatePreferences(prefs models.UserPreferences) (models.UserProfile, error) {
	profile, err := s.CurrentUser()
	if err != nil {
		return models.UserProfile{}, err
	}

	if prefs.PreferredQuality != "" {
		if !prefs.PreferredQuality.Valid() {
			return models.UserProfile{}, fmt.Errorf("invalid preferred quality %q", prefs.PreferredQuality)
		}
		profile.Preferences.PreferredQuality = prefs.PreferredQuality
	}

	if err := s.save(profile); err != nil {
		return models.UserProfile{}, err
	}
	log.WithField("quality", profile.Preferences.PreferredQuality).Debug("User preferences updated")
	return profile, nil
}

func (s *Store) bootstrap() (models.UserProfile, error) {
	profile := models.UserProfile{
		ID:       models.DefaultUserID,
		Username: "Default User",
		Preferences: models.UserPreferences{
			PreferredQuality: models.QualityHigh,
		},
	}
	if err := s.save(profile); err != nil {
		return models.UserProfile{}, err
	}
	log.Info("Created default user profile")
	return profile, nil
}

func (s *Store) save(profile models.UserProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("error encoding user profile: %w", err)
	}
	if err := s.db.Put(database.UserKey(profile.ID), raw); err != nil {
		return fmt.Errorf("error saving user profile: %w", err)
	}
	return nil
}
