// Package structura provides schema-guided structured data extraction from
// web pages. A page is fetched and reduced to markdown, an LLM is asked to
// emit a JSON document matching a per-domain JSON Schema ("blueprint"), and
// the output is validated against that schema before it is returned.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., gemini/, redis/, firecrawl/), with
// the orchestration logic in extract/.
package structura
