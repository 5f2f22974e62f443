package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"sebexam/internal/registrant/models"
	"sebexam/internal/registrant/service"
	dErrors "sebexam/pkg/domain-errors"
)

// registerRequest mirrors the registration payload. Dates travel as
// strings so the JSON and multipart paths share one shape.
type registerRequest struct {
	Surname                 string `json:"surname"`
	FirstName               string `json:"firstName"`
	MiddleName              string `json:"middleName"`
	DateOfBirth             string `json:"dateOfBirth"`
	Gender                  string `json:"gender"`
	Email                   string `json:"email"`
	Phone                   string `json:"phone"`
	NIN                     string `json:"nin"`
	StaffVerificationNumber string `json:"staffVerificationNumber"`

	PresentRank        string `json:"presentRank"`
	ExpectedRank       string `json:"expectedRank"`
	PresentGradeLevel  string `json:"presentGradeLevel"`
	ExpectedGradeLevel string `json:"expectedGradeLevel"`
	PresentStep        string `json:"presentStep"`
	Cadre              string `json:"cadre"`
	MDA                string `json:"mda"`

	DateOfFirstAppointment   string `json:"dateOfFirstAppointment"`
	DateOfPrevAppointment    string `json:"dateOfPrevAppointment"`
	DateOfPresentAppointment string `json:"dateOfPresentAppointment"`
	DateOfConfirmation       string `json:"dateOfConfirmation"`

	Disability     bool                   `json:"disability"`
	Qualifications []models.Qualification `json:"qualifications"`

	ExamType string `json:"examType"`
	ExamDate string `json:"examDate"`
}

func (h *Handler) decodeRegister(r *http.Request) (*service.RegisterInput, error) {
	var req registerRequest
	input := &service.RegisterInput{}

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, dErrors.New(dErrors.CodeBadRequest, "invalid multipart body")
		}
		if err := req.fromForm(r); err != nil {
			return nil, err
		}
		picture, err := pictureFrom(r, "profilePicture")
		if err != nil {
			return nil, err
		}
		input.ProfilePicture = picture
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}

	if err := req.validate(); err != nil {
		return nil, err
	}

	registrant, err := req.registrant()
	if err != nil {
		return nil, err
	}
	examDate, err := parseDate(req.ExamDate)
	if err != nil {
		return nil, err
	}

	input.Registrant = *registrant
	input.ExamType = req.ExamType
	input.ExamDate = examDate
	return input, nil
}

func (r *registerRequest) fromForm(req *http.Request) error {
	r.Surname = req.FormValue("surname")
	r.FirstName = req.FormValue("firstName")
	r.MiddleName = req.FormValue("middleName")
	r.DateOfBirth = req.FormValue("dateOfBirth")
	r.Gender = req.FormValue("gender")
	r.Email = req.FormValue("email")
	r.Phone = req.FormValue("phone")
	r.NIN = req.FormValue("nin")
	r.StaffVerificationNumber = req.FormValue("staffVerificationNumber")
	r.PresentRank = req.FormValue("presentRank")
	r.ExpectedRank = req.FormValue("expectedRank")
	r.PresentGradeLevel = req.FormValue("presentGradeLevel")
	r.ExpectedGradeLevel = req.FormValue("expectedGradeLevel")
	r.PresentStep = req.FormValue("presentStep")
	r.Cadre = req.FormValue("cadre")
	r.MDA = req.FormValue("mda")
	r.DateOfFirstAppointment = req.FormValue("dateOfFirstAppointment")
	r.DateOfPrevAppointment = req.FormValue("dateOfPrevAppointment")
	r.DateOfPresentAppointment = req.FormValue("dateOfPresentAppointment")
	r.DateOfConfirmation = req.FormValue("dateOfConfirmation")
	r.ExamType = req.FormValue("examType")
	r.ExamDate = req.FormValue("examDate")

	if raw := req.FormValue("disability"); raw != "" {
		disability, err := strconv.ParseBool(raw)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "disability must be a boolean")
		}
		r.Disability = disability
	}
	if raw := req.FormValue("qualifications"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &r.Qualifications); err != nil {
			return dErrors.New(dErrors.CodeValidation, "qualifications must be a JSON array")
		}
	}
	return nil
}

func (r *registerRequest) validate() error {
	required := []struct {
		name, value string
	}{
		{"surname", r.Surname},
		{"firstName", r.FirstName},
		{"email", r.Email},
		{"phone", r.Phone},
		{"nin", r.NIN},
		{"examType", r.ExamType},
	}
	for _, field := range required {
		if field.value == "" {
			return dErrors.Newf(dErrors.CodeValidation, "%s is required", field.name)
		}
	}
	return nil
}

func (r *registerRequest) registrant() (*models.Registrant, error) {
	registrant := &models.Registrant{
		Surname:                 r.Surname,
		FirstName:               r.FirstName,
		MiddleName:              r.MiddleName,
		Gender:                  r.Gender,
		Email:                   r.Email,
		Phone:                   r.Phone,
		NIN:                     r.NIN,
		StaffVerificationNumber: r.StaffVerificationNumber,
		PresentRank:             r.PresentRank,
		ExpectedRank:            r.ExpectedRank,
		PresentGradeLevel:       r.PresentGradeLevel,
		ExpectedGradeLevel:      r.ExpectedGradeLevel,
		PresentStep:             r.PresentStep,
		Cadre:                   r.Cadre,
		MDA:                     r.MDA,
		Disability:              r.Disability,
		Qualifications:          r.Qualifications,
	}

	dates := []struct {
		raw    string
		target *time.Time
	}{
		{r.DateOfBirth, &registrant.DateOfBirth},
		{r.DateOfFirstAppointment, &registrant.DateOfFirstAppointment},
		{r.DateOfPrevAppointment, &registrant.DateOfPrevAppointment},
		{r.DateOfPresentAppointment, &registrant.DateOfPresentAppointment},
		{r.DateOfConfirmation, &registrant.DateOfConfirmation},
	}
	for _, d := range dates {
		parsed, err := parseDate(d.raw)
		if err != nil {
			return nil, err
		}
		*d.target = parsed
	}
	return registrant, nil
}

// updateRequest is the partial biographical update. Exam captures any
// attempt to smuggle scores through this route so the service can reject
// it.
type updateRequest struct {
	Surname                 *string `json:"surname"`
	FirstName               *string `json:"firstName"`
	MiddleName              *string `json:"middleName"`
	DateOfBirth             *string `json:"dateOfBirth"`
	Gender                  *string `json:"gender"`
	Email                   *string `json:"email"`
	Phone                   *string `json:"phone"`
	PresentRank             *string `json:"presentRank"`
	ExpectedRank            *string `json:"expectedRank"`
	PresentGradeLevel       *string `json:"presentGradeLevel"`
	ExpectedGradeLevel      *string `json:"expectedGradeLevel"`
	PresentStep             *string `json:"presentStep"`
	Cadre                   *string `json:"cadre"`
	MDA                     *string `json:"mda"`
	DateOfFirstAppointment  *string `json:"dateOfFirstAppointment"`
	DateOfPrevAppointment   *string `json:"dateOfPrevAppointment"`
	DateOfPresentAppointment *string `json:"dateOfPresentAppointment"`
	DateOfConfirmation      *string `json:"dateOfConfirmation"`
	Disability              *bool   `json:"disability"`
	Qualifications          []models.Qualification `json:"qualifications"`

	Exam json.RawMessage `json:"exam"`
}

func decodeUpdate(r *http.Request) (*service.UpdateRegistrantInput, error) {
	var req updateRequest
	input := &service.UpdateRegistrantInput{}

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, dErrors.New(dErrors.CodeBadRequest, "invalid multipart body")
		}
		req.fromForm(r)
		picture, err := pictureFrom(r, "profilePicture")
		if err != nil {
			return nil, err
		}
		input.ProfilePicture = picture
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}

	input.Surname = req.Surname
	input.FirstName = req.FirstName
	input.MiddleName = req.MiddleName
	input.Gender = req.Gender
	input.Email = req.Email
	input.Phone = req.Phone
	input.PresentRank = req.PresentRank
	input.ExpectedRank = req.ExpectedRank
	input.PresentGradeLevel = req.PresentGradeLevel
	input.ExpectedGradeLevel = req.ExpectedGradeLevel
	input.PresentStep = req.PresentStep
	input.Cadre = req.Cadre
	input.MDA = req.MDA
	input.Disability = req.Disability
	input.Qualifications = req.Qualifications
	input.HasExamPayload = len(req.Exam) > 0

	dates := []struct {
		raw    *string
		target **time.Time
	}{
		{req.DateOfBirth, &input.DateOfBirth},
		{req.DateOfFirstAppointment, &input.DateOfFirstAppointment},
		{req.DateOfPrevAppointment, &input.DateOfPrevAppointment},
		{req.DateOfPresentAppointment, &input.DateOfPresentAppointment},
		{req.DateOfConfirmation, &input.DateOfConfirmation},
	}
	for _, d := range dates {
		if d.raw == nil {
			continue
		}
		parsed, err := parseDate(*d.raw)
		if err != nil {
			return nil, err
		}
		*d.target = &parsed
	}
	return input, nil
}

func (r *updateRequest) fromForm(req *http.Request) {
	set := func(field string, target **string) {
		if _, ok := req.Form[field]; ok {
			value := req.FormValue(field)
			*target = &value
		}
	}
	set("surname", &r.Surname)
	set("firstName", &r.FirstName)
	set("middleName", &r.MiddleName)
	set("dateOfBirth", &r.DateOfBirth)
	set("gender", &r.Gender)
	set("email", &r.Email)
	set("phone", &r.Phone)
	set("presentRank", &r.PresentRank)
	set("expectedRank", &r.ExpectedRank)
	set("presentGradeLevel", &r.PresentGradeLevel)
	set("expectedGradeLevel", &r.ExpectedGradeLevel)
	set("presentStep", &r.PresentStep)
	set("cadre", &r.Cadre)
	set("mda", &r.MDA)
	set("dateOfFirstAppointment", &r.DateOfFirstAppointment)
	set("dateOfPrevAppointment", &r.DateOfPrevAppointment)
	set("dateOfPresentAppointment", &r.DateOfPresentAppointment)
	set("dateOfConfirmation", &r.DateOfConfirmation)

	if raw := req.FormValue("disability"); raw != "" {
		if disability, err := strconv.ParseBool(raw); err == nil {
			r.Disability = &disability
		}
	}
	if raw := req.FormValue("qualifications"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &r.Qualifications)
	}
	if raw := req.FormValue("exam"); raw != "" {
		r.Exam = json.RawMessage(raw)
	}
}

// parseDate accepts RFC 3339 or bare yyyy-mm-dd. Empty means unset.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return parsed, nil
	}
	return time.Time{}, dErrors.Newf(dErrors.CodeValidation, "invalid date: %s", raw)
}
