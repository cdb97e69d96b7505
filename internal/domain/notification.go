package domain

// Notification type discriminators as they appear on the wire.
const (
	TypeTTSMessage   = "tts_message"
	TypeSoundEffect  = "sound_effect"
	TypeSticker      = "sticker"
	TypeFollow       = "follow"
	TypeSubscription = "subscription"
)

// Notification is an immutable message pushed to the widget subscribers of
// one stream. Implementations are plain structs that marshal to a JSON
// object with a "type" discriminator field.
type Notification interface {
	NotificationType() string
}

// TTSMessage announces a synthesized chat message.
type TTSMessage struct {
	Type             string  `json:"type"`
	Username         string  `json:"username"`
	Text             string  `json:"text"`
	AudioURL         string  `json:"audio_url"`
	Cached           bool    `json:"cached"`
	GenerationTimeMS float64 `json:"generation_time_ms"`
}

func NewTTSMessage(username, text, audioURL string, cached bool, generationTimeMS float64) TTSMessage {
	return TTSMessage{
		Type:             TypeTTSMessage,
		Username:         username,
		Text:             text,
		AudioURL:         audioURL,
		Cached:           cached,
		GenerationTimeMS: generationTimeMS,
	}
}

func (TTSMessage) NotificationType() string { return TypeTTSMessage }

// SoundEffect triggers playback of a named sound asset.
type SoundEffect struct {
	Type      string `json:"type"`
	SoundName string `json:"sound_name"`
	AudioURL  string `json:"audio_url"`
	Username  string `json:"username"`
}

func NewSoundEffect(soundName, audioURL, username string) SoundEffect {
	return SoundEffect{
		Type:      TypeSoundEffect,
		SoundName: soundName,
		AudioURL:  audioURL,
		Username:  username,
	}
}

func (SoundEffect) NotificationType() string { return TypeSoundEffect }

// Sticker triggers a sticker animation, optionally with audio.
type Sticker struct {
	Type        string `json:"type"`
	StickerName string `json:"sticker_name"`
	ImageURL    string `json:"image_url"`
	AudioURL    string `json:"audio_url,omitempty"`
	Username    string `json:"username"`
}

func NewSticker(stickerName, imageURL, audioURL, username string) Sticker {
	return Sticker{
		Type:        TypeSticker,
		StickerName: stickerName,
		ImageURL:    imageURL,
		AudioURL:    audioURL,
		Username:    username,
	}
}

func (Sticker) NotificationType() string { return TypeSticker }

// Follow announces a new follower.
type Follow struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Followed string `json:"followed"`
}

func NewFollow(username, followed string) Follow {
	return Follow{Type: TypeFollow, Username: username, Followed: followed}
}

func (Follow) NotificationType() string { return TypeFollow }

// Subscription announces a new channel subscriber.
type Subscription struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	UserID    int64  `json:"user_id"`
	ChannelID int64  `json:"channel_id"`
}

func NewSubscription(username string, userID, channelID int64) Subscription {
	return Subscription{Type: TypeSubscription, Username: username, UserID: userID, ChannelID: channelID}
}

func (Subscription) NotificationType() string { return TypeSubscription }
