// Copyright 2020-2023 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package summary

import "fmt"

// Validate enumerates every schema mismatch in s (spec §7:
// "Schema-validation failure: emitter throws a validation error
// enumerating all schema mismatches"). An empty result means s is valid.
func Validate(s *Summary) []string {
	var errs []string
	if s.SchemaVersion == "" {
		errs = append(errs, "schema_version is required")
	}
	for i, e := range s.Elements {
		errs = append(errs, validateClassLike(fmt.Sprintf("elements[%d]", i), e)...)
	}
	for i, e := range s.Mixins {
		errs = append(errs, validateClassLike(fmt.Sprintf("mixins[%d]", i), e)...)
	}
	for i, e := range s.Classes {
		errs = append(errs, validateClassLike(fmt.Sprintf("classes[%d]", i), e)...)
	}
	if s.Metadata != nil && s.Metadata.Polymer != nil {
		for i, e := range s.Metadata.Polymer.Behaviors {
			errs = append(errs, validateClassLike(fmt.Sprintf("metadata.polymer.behaviors[%d]", i), e)...)
		}
	}
	for i, f := range s.Functions {
		path := fmt.Sprintf("functions[%d]", i)
		if f.Name == "" {
			errs = append(errs, path+".name is required")
		}
		if f.SourceRange.File == "" {
			errs = append(errs, path+".sourceRange.file is required")
		}
	}
	return errs
}

func validateClassLike(path string, e *ClassLikeEntry) []string {
	var errs []string
	if e.Name == "" {
		errs = append(errs, path+".name is required")
	}
	if e.Path == "" {
		errs = append(errs, path+".path is required")
	}
	if e.SourceRange.File == "" {
		errs = append(errs, path+".sourceRange.file is required")
	}
	for i, m := range e.Properties {
		errs = append(errs, validateMember(fmt.Sprintf("%s.properties[%d]", path, i), m)...)
	}
	for i, m := range e.Methods {
		errs = append(errs, validateMember(fmt.Sprintf("%s.methods[%d]", path, i), m)...)
	}
	for i, m := range e.Attributes {
		errs = append(errs, validateMember(fmt.Sprintf("%s.attributes[%d]", path, i), m)...)
	}
	for i, m := range e.Events {
		errs = append(errs, validateMember(fmt.Sprintf("%s.events[%d]", path, i), m)...)
	}
	return errs
}

func validateMember(path string, m MemberEntry) []string {
	var errs []string
	if m.Name == "" {
		errs = append(errs, path+".name is required")
	}
	if m.SourceRange.File == "" {
		errs = append(errs, path+".sourceRange.file is required")
	}
	return errs
}
