package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// AudioCache provides filesystem-based caching for synthesized coach audio.
// Only common coaching phrases are cached; session-specific lines are
// generated on demand.
type AudioCache struct {
	cacheDir string
	mutex    sync.RWMutex
}

var CommonPhrases = map[string]bool{
	"Welcome to your practice session. Let's get started.":        true,
	"Great answer! Let's move on to the next question.":           true,
	"Thank you for that response. Here's your next question.":     true,
	"Take a moment to think about your response.":                 true,
	"Please take your time to consider this question.":            true,
	"That's an interesting point. Can you elaborate?":             true,
	"I see. Could you provide a specific example?":                true,
	"Let's dive deeper into this topic.":                          true,
	"You've made some good points there.":                         true,
	"That wraps up our session. Your feedback is being prepared.": true,
	"Well done! That concludes this practice session.":            true,
	"How would you approach this situation?":                      true,
	"Can you walk me through your reasoning?":                     true,
	"What trade-offs did you consider?":                           true,
}

func NewAudioCache(cacheDir string) *AudioCache {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		slog.Error("Failed to create cache directory", "dir", cacheDir, "error", err)
	}

	return &AudioCache{
		cacheDir: cacheDir,
	}
}

// generateCacheKey creates a unique key for caching based on text and voice ID
func (ac *AudioCache) generateCacheKey(text, voiceID string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%s", text, voiceID)))
	return hex.EncodeToString(hash[:])
}

func (ac *AudioCache) getCachePath(key string) string {
	return filepath.Join(ac.cacheDir, key+".mp3")
}

func (ac *AudioCache) IsCommonPhrase(text string) bool {
	return CommonPhrases[text]
}

// Get retrieves cached audio data if it exists
func (ac *AudioCache) Get(ctx context.Context, text, voiceID string) ([]byte, bool) {
	if !ac.IsCommonPhrase(text) {
		return nil, false
	}

	ac.mutex.RLock()
	defer ac.mutex.RUnlock()

	key := ac.generateCacheKey(text, voiceID)
	cachePath := ac.getCachePath(key)

	data, err := os.ReadFile(cachePath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("Failed to read cached audio", "path", cachePath, "error", err)
		}
		return nil, false
	}

	slog.Info("Cache hit for common phrase", "voice_id", voiceID)
	return data, true
}

// Set stores audio data in the cache
func (ac *AudioCache) Set(ctx context.Context, text, voiceID string, audioData []byte) error {
	if !ac.IsCommonPhrase(text) {
		return nil
	}

	ac.mutex.Lock()
	defer ac.mutex.Unlock()

	key := ac.generateCacheKey(text, voiceID)
	cachePath := ac.getCachePath(key)

	if err := os.WriteFile(cachePath, audioData, 0644); err != nil {
		slog.Error("Failed to write audio to cache", "path", cachePath, "error", err)
		return err
	}

	slog.Info("Cached common phrase audio", "voice_id", voiceID, "size", len(audioData))
	return nil
}

// GetOrGenerate gets cached audio or generates new audio and caches it
func (ac *AudioCache) GetOrGenerate(ctx context.Context, text, voiceID string, generator func() (io.ReadCloser, error)) ([]byte, error) {
	if cachedData, found := ac.Get(ctx, text, voiceID); found {
		return cachedData, nil
	}

	audioReader, err := generator()
	if err != nil {
		return nil, fmt.Errorf("failed to generate audio: %w", err)
	}
	defer audioReader.Close()

	audioData, err := io.ReadAll(audioReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if ac.IsCommonPhrase(text) {
		if err := ac.Set(ctx, text, voiceID, audioData); err != nil {
			slog.Warn("Failed to cache audio", "error", err)
		}
	}

	return audioData, nil
}

// GetCacheStats returns the cached file count and total size.
func (ac *AudioCache) GetCacheStats() (int, int64, error) {
	ac.mutex.RLock()
	defer ac.mutex.RUnlock()

	entries, err := os.ReadDir(ac.cacheDir)
	if err != nil {
		return 0, 0, err
	}

	var totalSize int64
	fileCount := 0

	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".mp3" {
			fileCount++
			if info, err := entry.Info(); err == nil {
				totalSize += info.Size()
			}
		}
	}

	return fileCount, totalSize, nil
}
