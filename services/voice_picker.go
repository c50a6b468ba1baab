package services

import (
	"crypto/sha1"
	"encoding/binary"
	"strings"
)

// Stock ElevenLabs voice IDs. Each interview type has its own pool so the
// coach sounds different across practice tracks but stays consistent for a
// given user.
var voicePools = map[string][]string{
	"behavioral": {
		"EXAVITQu4vr4xnSDxMaL", // Rachel
		"21m00Tcm4TlvDq8ikWAM", // Domi
		"MF3mGyEYCl7XYWbV9V6O", // Dorothy
	},
	"technical": {
		"pNInz6obpgDQGcFmaJgB", // Adam
		"TxGEqnHWrfWFTfGW9XjX", // Antoni
		"VR6AewLTigWG4xSOukaG", // Josh
	},
	"system_design": {
		"yoZ06aMxZJJ28mfd3POQ", // Arnold
		"bVMeCyTHy58xNoL34h3p", // Clyde
	},
	"case_study": {
		"AZnzlk1XvdvUeBnXmlld", // Bella
		"ErXwobaYiN019PkySvjV", // Elli
	},
}

const fallbackVoice = "pNInz6obpgDQGcFmaJgB" // Adam

// PickCoachVoice returns a stable voice ID for a user and interview type.
func PickCoachVoice(userID, interviewType string) string {
	pool, ok := voicePools[strings.ToLower(interviewType)]
	if !ok || len(pool) == 0 {
		return fallbackVoice
	}
	// Hash the user ID to pick a voice
	h := sha1.New()
	h.Write([]byte(strings.ToLower(userID)))
	sum := h.Sum(nil)
	idx := binary.BigEndian.Uint16(sum) % uint16(len(pool))
	return pool[idx]
}
