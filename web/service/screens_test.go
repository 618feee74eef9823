package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procodebh/crm-console/web/entity"
	"github.com/procodebh/crm-console/web/session"
)

func TestComputeDashboardStats(t *testing.T) {
	data := entity.DashboardData{
		Courses: make([]entity.Course, 3),
		Students: []entity.Student{
			{Status: "Active"}, {Status: "Active"}, {Status: "Inactive"}, {Status: "active"},
		},
		Resumes:    make([]entity.Resume, 5),
		Placements: make([]entity.Placement, 1),
		Employees: []entity.Employee{
			{Role: "teacher"}, {Role: "hr"}, {Role: "Teacher"},
		},
	}
	stats := ComputeDashboardStats(data)

	assert.Equal(t, 3, stats.Courses)
	assert.Equal(t, 4, stats.Students)
	assert.Equal(t, 2, stats.ActiveStudents)
	assert.Equal(t, 1, stats.Teachers)
	assert.Equal(t, 60000.0, stats.Revenue)
	assert.Equal(t, 20000.0, stats.TeacherSalary)
	assert.Equal(t, 40000.0, stats.NetProfit)
}

func TestDashboardLoadDegradesOnFailure(t *testing.T) {
	_, client := newFakeBackend(t, map[string]route{
		"GET /api/dashboard": {http.StatusInternalServerError, `{}`},
	})
	svc := DashboardService{}
	data, stats, err := svc.Load(context.Background(), client)
	require.Error(t, err)
	assert.NotNil(t, data.Students)
	assert.Empty(t, data.Students)
	assert.Zero(t, stats.NetProfit)
}

func TestDashboardLoadMissingCollections(t *testing.T) {
	_, client := newFakeBackend(t, map[string]route{
		"GET /api/dashboard": {http.StatusOK, `{"data":{"students":[{"_id":"1","status":"Active"}]}}`},
	})
	svc := DashboardService{}
	data, stats, err := svc.Load(context.Background(), client)
	require.NoError(t, err)
	assert.NotNil(t, data.Employees)
	assert.Equal(t, 1, stats.ActiveStudents)
	assert.Equal(t, 30000.0, stats.NetProfit)
}

func TestFilterStudentsAndVisibleCount(t *testing.T) {
	students := []entity.Student{
		{Name: "Asha Rao", Email: "asha@x.in", Course: "MERN"},
		{Name: "Ravi", Email: "ravi@x.in", Course: "Python"},
		{Name: "Meena", Email: "meena@x.in", Course: "mern stack"},
	}
	assert.Len(t, FilterStudents(students, ""), 3)
	got := FilterStudents(students, "MeRn")
	require.Len(t, got, 2)
	assert.Equal(t, "Asha Rao", got[0].Name)
	assert.Empty(t, FilterStudents(students, "java"))

	assert.Equal(t, 3, VisibleCount(0, 3))
	assert.Equal(t, 6, VisibleCount(0, 20))
	assert.Equal(t, 12, VisibleCount(12, 20))
	assert.Equal(t, 20, VisibleCount(18, 20))
}

func TestStudentListAbsentData(t *testing.T) {
	_, client := newFakeBackend(t, map[string]route{
		"GET /api/students": {http.StatusOK, `{"message":"ok"}`},
	})
	svc := StudentService{}
	list, err := svc.List(context.Background(), client)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestStudentCreateValidation(t *testing.T) {
	fb, client := newFakeBackend(t, nil)
	svc := StudentService{}
	_, err := svc.Create(context.Background(), client, entity.StudentForm{Name: "Asha"}, nil)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "Please fill all required fields", ErrorMessage(err, ""))
	assert.Zero(t, fb.calls())
}

func TestCourseUpdateSendsJSON(t *testing.T) {
	fb, client := newFakeBackend(t, map[string]route{
		"PUT /api/courses/c1": {http.StatusOK, `{"message":"Course updated"}`},
	})
	svc := CourseService{}
	msg, err := svc.Update(context.Background(), client, "c1", entity.CourseForm{
		CourseName: "Go", Duration: "3 months", Fee: "15000", Level: "Beginner", InstructorName: "hidden",
	})
	require.NoError(t, err)
	assert.Equal(t, "Course updated", msg)

	body := fb.body("PUT /api/courses/c1")
	assert.Equal(t, "Go", body["courseName"])
	assert.Equal(t, "15000", body["fee"])
	assert.NotContains(t, body, "instructorName")
	assert.NotContains(t, body, "courseImg")
}

func TestCourseCreateRequiresImage(t *testing.T) {
	_, client := newFakeBackend(t, nil)
	svc := CourseService{}
	_, err := svc.Create(context.Background(), client, entity.CourseForm{CourseName: "Go", Duration: "3", Fee: "1"}, nil)
	assert.True(t, IsValidation(err))
}

func TestCourseDecodesFlexibleFields(t *testing.T) {
	_, client := newFakeBackend(t, map[string]route{
		"GET /api/courses": {http.StatusOK, `{"data":[{"_id":"c1","courseName":"Go","fee":15000,"instructor":{"name":"Anil","experience":5}},{"_id":"c2","fee":"12,000"}]}`},
	})
	svc := CourseService{}
	list, err := svc.List(context.Background(), client)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "15000", list[0].Fee.String())
	assert.Equal(t, 15000.0, list[0].Fee.Float())
	assert.Equal(t, "5", list[0].Instructor.Experience.String())
	assert.Equal(t, "12,000", list[1].Fee.String())
}

func TestPlacementStudentReference(t *testing.T) {
	_, client := newFakeBackend(t, map[string]route{
		"GET /api/placements": {http.StatusOK, `{"data":[{"_id":"p1","student":{"_id":"s1","name":"Asha"},"companyName":"Acme"},{"_id":"p2","student":"s2"},{"_id":"p3"}]}`},
	})
	svc := PlacementService{}
	list, err := svc.List(context.Background(), client)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Asha", list[0].StudentName())
	assert.Equal(t, "s2", list[1].Student.ID)
	assert.Equal(t, "-", list[1].StudentName())
	assert.Equal(t, "-", list[2].StudentName())
}

func TestSignupNormalizesRole(t *testing.T) {
	fb, client := newFakeBackend(t, map[string]route{
		"POST /api/admin/signup": {http.StatusCreated, `{"message":"User created"}`},
	})
	svc := SignupService{}

	_, err := svc.Create(context.Background(), client, entity.SignupForm{Name: "A", Email: "a@x.in", Password: "p", Role: "teacher"})
	assert.True(t, IsValidation(err))

	msg, err := svc.Create(context.Background(), client, entity.SignupForm{Name: "A", Email: " a@x.in ", Password: "p", Role: "Counsellor"})
	require.NoError(t, err)
	assert.Equal(t, "User created", msg)
	body := fb.body("POST /api/admin/signup")
	assert.Equal(t, string(session.RoleCounsellor), body["role"])
	assert.Equal(t, "a@x.in", body["email"])
}

func TestAlumniCreateValidation(t *testing.T) {
	_, client := newFakeBackend(t, nil)
	svc := AlumniService{}
	_, err := svc.Create(context.Background(), client, entity.AlumniForm{Student: "s1"})
	assert.Equal(t, "Student and passing year are required", ErrorMessage(err, ""))
}

func TestErrorMessageFallback(t *testing.T) {
	_, client := newFakeBackend(t, map[string]route{
		"DELETE /api/students/s1": {http.StatusInternalServerError, `{}`},
		"DELETE /api/courses/c1":  {http.StatusForbidden, `{"message":"Not allowed"}`},
	})
	err := (&StudentService{}).Delete(context.Background(), client, "s1")
	assert.Equal(t, "Failed to delete student", ErrorMessage(err, "Failed to delete student"))
	err = (&CourseService{}).Delete(context.Background(), client, "c1")
	assert.Equal(t, "Not allowed", ErrorMessage(err, "Failed to delete course"))
}
