package domain

import "time"

// TeacherProfile is folded into the generation system context so answers can
// match the teacher's grade, subject and setting.
type TeacherProfile struct {
	ID         string     `json:"id"`
	Name       string     `json:"name,omitempty"`
	Grade      string     `json:"grade"`
	Subject    string     `json:"subject"`
	Location   string     `json:"location"`
	CRPID      string     `json:"crp_id,omitempty"`
	LastActive *time.Time `json:"last_active,omitempty"`
}

// TopicCount is one entry of a CRP's top-topics breakdown.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// CRPAnalytics summarizes query activity across the teachers a cluster
// resource person supervises.
type CRPAnalytics struct {
	CRPID                 string         `json:"crp_id"`
	TotalTeachers         int            `json:"total_teachers"`
	TotalQueriesToday     int            `json:"total_queries_today"`
	TopTopics             []TopicCount   `json:"top_topics"`
	SentimentDistribution map[string]int `json:"sentiment_distribution"`
	LanguageDistribution  map[string]int `json:"language_distribution"`
}
