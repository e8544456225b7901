package models

type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Gender      string `json:"gender"`
	Language    string `json:"language"`
	UseCase     string `json:"use_case"`
	Premium     bool   `json:"premium"`
	// UpstreamVoice is the neural voice name sent to the edge-tts bridge.
	UpstreamVoice string `json:"-"`
}

// Voices is the static voice catalog.
var Voices = map[string]Voice{
	"lexi_whatsapp": {
		ID: "lexi_whatsapp", Name: "Lexi - WhatsApp Voice",
		Description: "Perfect for WhatsApp voice messages",
		Gender:      "female", Language: "en-ng", UseCase: "social",
		Premium: false, UpstreamVoice: "en-NG-EzinneNeural",
	},
	"ada_business": {
		ID: "ada_business", Name: "Ada - Business Professional",
		Description: "Professional Nigerian businesswoman voice",
		Gender:      "female", Language: "en-ng", UseCase: "business",
		Premium: true, UpstreamVoice: "en-NG-EzinneNeural",
	},
	"kemi_academic": {
		ID: "kemi_academic", Name: "Kemi - Academic Expert",
		Description: "Nigerian university professor voice",
		Gender:      "female", Language: "en-ng", UseCase: "education",
		Premium: true, UpstreamVoice: "en-NG-EzinneNeural",
	},
	"emeka_tech": {
		ID: "emeka_tech", Name: "Emeka - Tech Leader",
		Description: "Nigerian tech entrepreneur voice",
		Gender:      "male", Language: "en-ng", UseCase: "technology",
		Premium: false, UpstreamVoice: "en-NG-AbeoNeural",
	},
	"folake_legal": {
		ID: "folake_legal", Name: "Folake - Legal Expert",
		Description: "Nigerian lawyer voice",
		Gender:      "female", Language: "en-ng", UseCase: "legal",
		Premium: true, UpstreamVoice: "en-NG-EzinneNeural",
	},
	"chidi_narrator": {
		ID: "chidi_narrator", Name: "Chidi - Storyteller",
		Description: "Nigerian storyteller and narrator",
		Gender:      "male", Language: "en-ng", UseCase: "entertainment",
		Premium: false, UpstreamVoice: "en-NG-AbeoNeural",
	},
}

// VoiceByID returns the voice and whether it exists.
func VoiceByID(id string) (Voice, bool) {
	v, ok := Voices[id]
	return v, ok
}
