// Package models defines the wire types exchanged with the bookmark backend and the entities markx persists locally.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs decoded from the envelope's data field
//   - [Bookmark], [Space], [Tag] : core bookmark resources
//   - [Page] : paginated listing wrapper
//   - [LoginResponse], [TokenInfo], [UserInfo] : authentication results
//   - [WebsiteAnalysis], [ResourceUsage] : AI analysis payloads
//
// 2. Persistent Entities: database-backed models with full lifecycle management
//   - [AnalysisRecord] : outcome of one website analysis run
//   - [Credential] : persisted bearer token for a profile
//
// Persistent entities implement the [Model] interface providing ID generation, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
