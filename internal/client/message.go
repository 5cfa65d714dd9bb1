package client

// Message mirrors the message DTO the server publishes on message:new
type Message struct {
	ID             string  `json:"id"`
	Text           string  `json:"text"`
	Created        string  `json:"created"`
	DateRead       *string `json:"dateRead"`
	SenderID       string  `json:"senderId"`
	SenderName     string  `json:"senderName"`
	SenderImage    *string `json:"senderImage"`
	RecipientID    string  `json:"recipientId"`
	RecipientName  string  `json:"recipientName"`
	RecipientImage *string `json:"recipientImage"`
}

// Like mirrors the like:new payload
type Like struct {
	Name   string  `json:"name"`
	Image  *string `json:"image"`
	UserID string  `json:"userId"`
}
