package types

type SentenceSection struct {
	Id       int           `json:"id"`
	Sentence []int32       `json:"sentence"`
	Text     string        `json:"text"`
	Tokens   []TaggedToken `json:"tokens"`
}

type TaggingResponse struct {
	DocId     string            `json:"docId"`
	Config    string            `json:"config"`
	Sentences []SentenceSection `json:"sentences"`
}
