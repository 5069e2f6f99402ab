package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassMembership(t *testing.T) {
	class := &Class{Name: "CS-A", TeacherID: "teacher-1", EnrollmentKey: "ABCD1234"}

	class.AddStudent("s1")
	class.AddStudent("s2")
	class.AddStudent("s1") // idempotent

	assert.Equal(t, 2, class.StudentCount())
	assert.True(t, class.Enrolled("s1"))
	assert.False(t, class.Enrolled("s3"))
}

func TestClassBlockAndUnblock(t *testing.T) {
	class := &Class{}
	class.AddStudent("s1")
	class.AddStudent("s2")

	class.Block("s1")
	assert.False(t, class.HasStudent("s1"))
	assert.True(t, class.IsBlocked("s1"))
	assert.False(t, class.Enrolled("s1"))
	assert.True(t, class.Enrolled("s2"))

	// Blocking again must not duplicate the block record.
	class.Block("s1")
	assert.Len(t, class.BlockedIDs, 1)

	class.Unblock("s1")
	assert.True(t, class.Enrolled("s1"))
	assert.False(t, class.IsBlocked("s1"))
}

func TestClassAddQuiz(t *testing.T) {
	class := &Class{}
	class.AddQuiz(7)
	class.AddQuiz(7)
	class.AddQuiz(9)

	assert.Equal(t, []uint{7, 9}, []uint(class.QuizIDs))
}
