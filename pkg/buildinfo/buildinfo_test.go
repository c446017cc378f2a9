/*
Copyright 2024 The searchcore Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package buildinfo

import "testing"

func TestSummaryUnknownByDefault(t *testing.T) {
	Version, GitInfo = "", ""
	if got := Summary(); got != "unknown" {
		t.Errorf("Summary() = %q, want %q", got, "unknown")
	}
}

func TestSummaryCombinesVersionAndGitInfo(t *testing.T) {
	Version, GitInfo = "1.0", "abc123"
	defer func() { Version, GitInfo = "", "" }()
	if got, want := Summary(), "1.0, abc123"; got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestTestingLinked(t *testing.T) {
	if !TestingLinked() {
		t.Error("TestingLinked() = false inside a test binary; want true")
	}
}
