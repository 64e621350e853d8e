// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package study times study sessions and summarizes the history.
//
// A Tracker keeps at most one active session. Ended sessions are appended
// to the persisted list under storage.StudySessionsKey and never change.
//
//	tr := study.NewTracker(storage.NewStudyRepo(store))
//	tr.Start(&course)
//	...
//	s, _ := tr.End()
//	fmt.Println(study.FormatDuration(s.Seconds()))
package study
