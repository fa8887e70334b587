package faceRepository

const (
	queryInsertDescriptor = `
INSERT INTO face_descriptors (id, user_id, label, descriptor, created_at)
VALUES (:id, :user_id, :label, :descriptor, :created_at)`

	queryGetByUserID = `
SELECT id, user_id, label, descriptor, created_at
FROM face_descriptors
    WHERE user_id = :user_id
ORDER BY created_at, id`

	queryGetAll = `
SELECT id, user_id, label, descriptor, created_at
FROM face_descriptors
ORDER BY created_at, id`

	queryCountByUserID = `
SELECT COUNT(*)
FROM face_descriptors
    WHERE user_id = :user_id`
)
