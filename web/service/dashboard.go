package service

import (
	"context"

	"github.com/procodebh/crm-console/web/entity"
	"github.com/procodebh/crm-console/web/gateway"
)

const (
	// StudentFee is the revenue counted per active student.
	StudentFee = 30000
	// TeacherSalary is the monthly cost counted per teacher.
	TeacherSalary = 20000

	activeStatus = "Active"
	teacherRole  = "teacher"
)

type DashboardService struct{}

// Load fetches the dashboard data and derives its figures. A failed call
// still returns zeroed figures alongside the error.
func (s *DashboardService) Load(ctx context.Context, api *gateway.Client) (entity.DashboardData, entity.DashboardStats, error) {
	data := entity.DashboardData{}
	resp, err := api.Get(ctx, "/dashboard")
	if err == nil {
		err = resp.Decode(&data)
	}
	data = normalizeDashboard(data)
	return data, ComputeDashboardStats(data), err
}

func normalizeDashboard(d entity.DashboardData) entity.DashboardData {
	if d.Courses == nil {
		d.Courses = []entity.Course{}
	}
	if d.Students == nil {
		d.Students = []entity.Student{}
	}
	if d.Resumes == nil {
		d.Resumes = []entity.Resume{}
	}
	if d.Placements == nil {
		d.Placements = []entity.Placement{}
	}
	if d.Employees == nil {
		d.Employees = []entity.Employee{}
	}
	return d
}

// ComputeDashboardStats counts the collections and derives revenue from
// active students and salary cost from teachers.
func ComputeDashboardStats(d entity.DashboardData) entity.DashboardStats {
	stats := entity.DashboardStats{
		Courses:    len(d.Courses),
		Students:   len(d.Students),
		Resumes:    len(d.Resumes),
		Placements: len(d.Placements),
	}
	for _, st := range d.Students {
		if st.Status == activeStatus {
			stats.ActiveStudents++
		}
	}
	for _, e := range d.Employees {
		if e.Role == teacherRole {
			stats.Teachers++
		}
	}
	stats.Revenue = float64(stats.ActiveStudents * StudentFee)
	stats.TeacherSalary = float64(stats.Teachers * TeacherSalary)
	stats.NetProfit = stats.Revenue - stats.TeacherSalary
	return stats
}
