package models

// This file serves as the central export point for all database models
// Import this package to access all model types

// Database schema overview:
// 1. users - Cookie-based authentication, email verification state
// 2. refresh_tokens, email_verifications - hashed single-use tokens
// 3. question_banks - Both public banks (user_id is NULL) and private user-created banks
// 4. questions - Interview questions belonging to a bank
// 5. practice_sessions - Records each practice attempt
// 6. session_turns, session_feedbacks, performance_scores - per-session detail
// 7. performance_profiles - Rolling per-(user, interview type) aggregates for the adaptive engine
// 8. recommendations - Persisted next-session suggestions and their resolution
// 9. scheduled_sessions - Calendar-bound session records, optionally mirrored externally
// 10. job_listings - Seeded, searchable job postings
