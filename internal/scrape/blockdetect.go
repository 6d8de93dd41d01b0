package scrape

import "strings"

// BlockType describes the kind of block detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockAgeGate    BlockType = "age_gate"
	BlockDenied     BlockType = "access_denied"
)

// DetectBlock checks a rendered page's title and visible text for
// anti-bot interstitials and age gates that hide the wine cards.
func DetectBlock(title, text string) (bool, BlockType) {
	lt := strings.ToLower(title)
	lower := strings.ToLower(text)

	if strings.Contains(lt, "just a moment") ||
		strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge") {
		return true, BlockCloudflare
	}

	if strings.Contains(lower, "captcha") {
		return true, BlockCaptcha
	}

	if strings.Contains(lt, "access denied") || strings.Contains(lower, "you have been blocked") {
		return true, BlockDenied
	}

	// Alcohol retailers commonly overlay an age check on short landing pages.
	if len(lower) < 2000 &&
		(strings.Contains(lower, "are you 21") || strings.Contains(lower, "legal drinking age")) {
		return true, BlockAgeGate
	}

	return false, BlockNone
}
