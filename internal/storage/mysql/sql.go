package mysql

const insertAttemptSQL = `
INSERT INTO commit_attempts
  (id, hotel_id, hotel_name, origin, customer_name, check_in, check_out, nights, total_price, room_count, status)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Upsert so a lost BeginAttempt does not lose the final state or its locks.
const finishAttemptSQL = `
INSERT INTO commit_attempts
  (id, hotel_id, hotel_name, origin, customer_name, check_in, check_out, nights, total_price, room_count,
   status, error_kind, error_message, reservation_id)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  status         = VALUES(status),
  error_kind     = VALUES(error_kind),
  error_message  = VALUES(error_message),
  reservation_id = VALUES(reservation_id),
  total_price    = VALUES(total_price)
`

const upsertLockSQL = `
INSERT INTO commit_locks (attempt_id, room_number_id, state, message)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  state   = VALUES(state),
  message = VALUES(message)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Oldest first so a stuck lock does not starve behind newer ones.
const pendingReleasesSQL = `
SELECT l.attempt_id, l.room_number_id, a.check_in, a.check_out
FROM commit_locks l
JOIN commit_attempts a ON a.id = l.attempt_id
WHERE l.state = 'pending_release'
ORDER BY l.updated_at, l.attempt_id, l.room_number_id
LIMIT ?
`

const markReleasedSQL = `
UPDATE commit_locks
SET state = 'released', message = NULL
WHERE attempt_id = ? AND room_number_id = ? AND state = 'pending_release'
`

const getAttemptSQL = `
SELECT id, hotel_id, hotel_name, origin, customer_name, check_in, check_out,
       nights, total_price, room_count, status, error_kind, error_message, reservation_id
FROM commit_attempts
WHERE id = ?
`

const listLocksSQL = `
SELECT room_number_id, state, message
FROM commit_locks
WHERE attempt_id = ?
ORDER BY room_number_id
`
