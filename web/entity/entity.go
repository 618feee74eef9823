// Package entity defines the data structures exchanged between the console's
// controllers, its services and the backend API.
package entity

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Msg represents a standard API response message with success status, message text, and optional data object.
type Msg struct {
	Success bool   `json:"success"` // Indicates if the operation was successful
	Msg     string `json:"msg"`     // Response message text
	Obj     any    `json:"obj"`     // Optional data object
}

// Flex decodes a JSON string or number into a string, for backend fields
// whose type varies between records (fees, ages, package amounts).
type Flex string

func (f *Flex) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = Flex(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = Flex(n.String())
	return nil
}

func (f Flex) String() string { return string(f) }

// Float parses f, returning 0 when it is not a number.
func (f Flex) Float() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(f)), 64)
	if err != nil {
		return 0
	}
	return v
}

// Student is an enrolled student record.
type Student struct {
	ID            string `json:"_id"`
	Name          string `json:"name"`
	Gender        string `json:"gender"`
	Age           Flex   `json:"age"`
	Qualification string `json:"qualification"`
	Email         string `json:"email"`
	Phone         Flex   `json:"phone"`
	Address       string `json:"address"`
	Course        string `json:"course"`
	Batch         string `json:"batch"`
	Status        string `json:"status"`
	ProfileImage  string `json:"profileImage"`
	CreatedAt     string `json:"createdAt"`
}

// Matches reports whether the student's name, email or course contains
// query, ignoring case.
func (s Student) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s.Name+s.Email+s.Course), q)
}

// StudentForm is the create/edit student form.
type StudentForm struct {
	Name          string `form:"name" json:"name"`
	Gender        string `form:"gender" json:"gender"`
	Age           string `form:"age" json:"age"`
	Qualification string `form:"qualification" json:"qualification"`
	Email         string `form:"email" json:"email"`
	Phone         string `form:"phone" json:"phone"`
	Address       string `form:"address" json:"address"`
	Course        string `form:"course" json:"course"`
	Batch         string `form:"batch" json:"batch"`
	Status        string `form:"status" json:"status,omitempty"`
}

// Complete reports whether every create-form field is filled.
func (f StudentForm) Complete() bool {
	for _, v := range []string{f.Name, f.Gender, f.Age, f.Qualification, f.Email, f.Phone, f.Address, f.Course, f.Batch} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// Instructor teaches a course.
type Instructor struct {
	Name       string `json:"name"`
	Experience Flex   `json:"experience"`
}

// Course is a course offered by the institute.
type Course struct {
	ID          string      `json:"_id"`
	CourseName  string      `json:"courseName"`
	Duration    string      `json:"duration"`
	Fee         Flex        `json:"fee"`
	CourseImg   string      `json:"courseImg"`
	Description string      `json:"description"`
	Eligibility string      `json:"eligibility"`
	Level       string      `json:"level"`
	Mode        string      `json:"mode"`
	Status      string      `json:"status"`
	StartDate   string      `json:"startDate"`
	Syllabus    []string    `json:"syllabus"`
	Instructor  *Instructor `json:"instructor"`
}

// CourseForm is the add/edit course form.
type CourseForm struct {
	CourseName           string `form:"courseName" json:"courseName"`
	Duration             string `form:"duration" json:"duration"`
	Fee                  string `form:"fee" json:"fee"`
	CourseImg            string `form:"courseImg" json:"courseImg,omitempty"`
	Description          string `form:"description" json:"description"`
	Eligibility          string `form:"eligibility" json:"eligibility"`
	Level                string `form:"level" json:"level"`
	Mode                 string `form:"mode" json:"mode"`
	Syllabus             string `form:"syllabus" json:"-"`
	InstructorName       string `form:"instructorName" json:"-"`
	InstructorExperience string `form:"instructorExperience" json:"-"`
	Status               string `form:"status" json:"-"`
	StartDate            string `form:"startDate" json:"-"`
}

// Required reports whether name, duration and fee are filled.
func (f CourseForm) Required() bool {
	return strings.TrimSpace(f.CourseName) != "" &&
		strings.TrimSpace(f.Duration) != "" &&
		strings.TrimSpace(f.Fee) != ""
}

// SyllabusTopics splits the comma separated syllabus into trimmed topics.
func (f CourseForm) SyllabusTopics() []string {
	parts := strings.Split(f.Syllabus, ",")
	topics := make([]string, 0, len(parts))
	for _, p := range parts {
		topics = append(topics, strings.TrimSpace(p))
	}
	return topics
}

// Resume is a submitted resume.
type Resume struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     Flex   `json:"phone"`
	Course    string `json:"course"`
	ResumeURL string `json:"resumeUrl"`
	Status    string `json:"status"`
}

// ResumeForm is the add resume form.
type ResumeForm struct {
	Name   string `form:"name"`
	Email  string `form:"email"`
	Phone  string `form:"phone"`
	Course string `form:"course"`
	Status string `form:"status"`
}

// StudentRef is a student reference that the backend either populates or
// leaves as a bare id.
type StudentRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

func (r *StudentRef) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		*r = StudentRef{ID: id}
		return nil
	}
	type plain StudentRef
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = StudentRef(p)
	return nil
}

// Placement is a student's job placement.
type Placement struct {
	ID          string      `json:"_id"`
	Student     *StudentRef `json:"student"`
	CompanyName string      `json:"companyName"`
	JobRole     string      `json:"jobRole"`
	Package     Flex        `json:"package"`
	Status      string      `json:"status"`
}

// StudentName returns the placed student's name, or "-" when unknown.
func (p Placement) StudentName() string {
	if p.Student == nil || p.Student.Name == "" {
		return "-"
	}
	return p.Student.Name
}

// PlacementForm is the add placement form.
type PlacementForm struct {
	Student     string `form:"student" json:"student"`
	CompanyName string `form:"companyName" json:"companyName"`
	JobRole     string `form:"jobRole" json:"jobRole"`
	Package     string `form:"package" json:"package"`
	Status      string `form:"status" json:"status"`
}

// Alumni is a former student's record.
type Alumni struct {
	ID          string      `json:"_id"`
	Student     *StudentRef `json:"student"`
	PassingYear Flex        `json:"passingYear"`
	CompanyName string      `json:"companyName"`
	JobRole     string      `json:"jobRole"`
	Location    string      `json:"location"`
}

// AlumniForm is the add alumni form.
type AlumniForm struct {
	Student     string `form:"student" json:"student"`
	PassingYear string `form:"passingYear" json:"passingYear"`
	CompanyName string `form:"companyName" json:"companyName"`
	JobRole     string `form:"jobRole" json:"jobRole"`
	Location    string `form:"location" json:"location"`
}

// SignupForm creates a staff account.
type SignupForm struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Role     string `form:"role" json:"role"`
}

// Profile is the logged-in staff member's profile.
type Profile struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        Flex   `json:"phone"`
	Designation  string `json:"designation"`
	Department   string `json:"department"`
	Experience   Flex   `json:"experience"`
	Status       string `json:"status"`
	ProfileImage string `json:"profileImage"`
	Role         string `json:"role"`
	CreatedAt    string `json:"createdAt"`
}

// ProfileForm is the edit profile form.
type ProfileForm struct {
	Name        string `form:"name"`
	Phone       string `form:"phone"`
	Email       string `form:"email"`
	Designation string `form:"designation"`
	Department  string `form:"department"`
	Experience  string `form:"experience"`
	Status      string `form:"status"`
}

// Employee is a staff member as listed on the dashboard.
type Employee struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// DashboardData is the payload of the backend dashboard endpoint.
type DashboardData struct {
	Courses    []Course    `json:"courses"`
	Students   []Student   `json:"students"`
	Resumes    []Resume    `json:"resumes"`
	Placements []Placement `json:"placements"`
	Employees  []Employee  `json:"employees"`
}

// DashboardStats are the figures shown on the dashboard.
type DashboardStats struct {
	Courses        int
	Students       int
	ActiveStudents int
	Resumes        int
	Placements     int
	Teachers       int
	Revenue        float64
	TeacherSalary  float64
	NetProfit      float64
}

// LoginResult is the data of a successful backend login or OTP reply.
type LoginResult struct {
	IsVerified bool            `json:"isVarified"`
	Token      string          `json:"token"`
	Email      string          `json:"email"`
	User       json.RawMessage `json:"user"`
}
