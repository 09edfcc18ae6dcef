package models

// JobFields are the structured job posting fields a job description can be
// assembled from.
type JobFields struct {
	Role          string `json:"role"`
	Company       string `json:"company"`
	Description   string `json:"description"`
	Skills        string `json:"skills"`
	Qualification string `json:"qualification"`
	Benefits      string `json:"benefits"`
	Experience    string `json:"experience"`
	Location      string `json:"location"`
}

type ParseRequest struct {
	ResumeBase64   string     `json:"resume_base64" validate:"required"`
	ResumeFilename string     `json:"resume_filename" validate:"required"`
	JobDescription string     `json:"job_description"`
	Job            *JobFields `json:"job,omitempty"`
}

type UploadResponse struct {
	ID           string `json:"id"`
	DocumentID   string `json:"document_id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	Status       string `json:"status"`
}

type ResultResponse struct {
	ID           string        `json:"id"`
	Status       string        `json:"status"`
	Result       *AnalysisData `json:"result,omitempty"`
	ErrorMessage *string       `json:"error_message,omitempty"`
}

type AnalysisData struct {
	ParsedData         *CandidateProfile `json:"parsed_data"`
	AtsScore           *float64          `json:"ats_score"`
	AtsMatchPercentage *float64          `json:"ats_match_percentage"`
	AtsRawJSON         *AtsAssessment    `json:"ats_raw_json"`
	ParsedDataSource   string            `json:"parsed_data_source"`
	AtsSource          string            `json:"ats_source,omitempty"`
}
