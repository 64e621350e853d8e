// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// Course is an entry of the course catalog.
type Course struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	Color     string `json:"color"`
	Credits   int    `json:"credits"`
	Professor string `json:"professor,omitempty"`
}

// Label returns "CODE - Name".
func (c Course) Label() string {
	return c.Code + " - " + c.Name
}

var catalog = []Course{
	{ID: "cs101", Code: "CS 101", Name: "Introduction to Computer Science", Credits: 3, Color: "blue", Professor: "Dr. Smith"},
	{ID: "math201", Code: "MATH 201", Name: "Calculus II", Credits: 4, Color: "green", Professor: "Dr. Johnson"},
	{ID: "eng102", Code: "ENG 102", Name: "English Composition", Credits: 3, Color: "purple", Professor: "Prof. Wilson"},
	{ID: "hist101", Code: "HIST 101", Name: "World History", Credits: 3, Color: "amber", Professor: "Dr. Brown"},
	{ID: "bio201", Code: "BIO 201", Name: "General Biology", Credits: 4, Color: "emerald", Professor: "Dr. Davis"},
	{ID: "chem101", Code: "CHEM 101", Name: "General Chemistry", Credits: 4, Color: "red", Professor: "Prof. Lee"},
	{ID: "phys101", Code: "PHYS 101", Name: "Physics I", Credits: 4, Color: "indigo", Professor: "Dr. Garcia"},
	{ID: "psyc101", Code: "PSYC 101", Name: "Introduction to Psychology", Credits: 3, Color: "pink", Professor: "Dr. Martinez"},
	{ID: "econ101", Code: "ECON 101", Name: "Microeconomics", Credits: 3, Color: "orange", Professor: "Prof. Taylor"},
	{ID: "art110", Code: "ART 110", Name: "Art Appreciation", Credits: 2, Color: "violet", Professor: "Dr. Anderson"},
}

// Courses returns a copy of the built-in catalog in display order.
func Courses() []Course {
	out := make([]Course, len(catalog))
	copy(out, catalog)
	return out
}

// LookupCourse finds a course by ID or code. Matching ignores case and spaces,
// so "cs101", "CS 101" and "cs 101" all resolve to the same course.
func LookupCourse(key string) (Course, bool) {
	k := normalizeCourseKey(key)
	if k == "" {
		return Course{}, false
	}
	for _, c := range catalog {
		if normalizeCourseKey(c.ID) == k || normalizeCourseKey(c.Code) == k {
			return c, true
		}
	}
	return Course{}, false
}

func normalizeCourseKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}
