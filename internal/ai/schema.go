package ai

// postsSchemaDescription is the table description fed to the model when
// generating SQL. It must track the table definition in init.sql.
const postsSchemaDescription = `
Database: social
Table: posts

Columns:
  - post_id         String    -- Unique post id from the social platform
  - text            String    -- Full post text
  - author          String    -- Author username
  - created_at      DateTime  -- When the post was published (UTC)
  - project_tag     String    -- Tracked project the post was collected for (e.g. "solana", "bonk")
  - media_url       String    -- URL of the first attached photo, empty when none
  - sentiment_label String    -- "positive", "neutral", "negative", "error", or "" when not yet labeled
  - sentiment_score Float64   -- Model confidence in the label, 0..1
  - fetched_at      DateTime  -- When the collector stored the post (UTC)

Notes:
  - Labeled posts have sentiment_label NOT IN ('', 'error').
  - For positive share use countIf(sentiment_label = 'positive') * 100.0 / count().
  - Time filters should use created_at, e.g. created_at >= now() - INTERVAL 24 HOUR.
  - project_tag is lowercase.
`
