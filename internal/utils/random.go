package utils

import (
	"math/rand"
	"time"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

// GenerateUsernameFromChineseName 用姓名的拼音加随机数字生成一个邮箱前缀
func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, p := range pinyinArray {
		length := rand.Intn(len(p)) + 1
		username += p[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

var departments = []string{
	"General", "Engineering", "Marketing", "Sales", "Support",
}

func GenerateRandomDepartment() string {
	return departments[rand.Intn(len(departments))]
}

func GenerateRandomMember(password string, emailDomainName string) (*domain.Member, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	member := &domain.Member{
		Name:         fullName,
		Email:        username + "@" + emailDomainName,
		PasswordHash: string(passwordHash),
		Role:         domain.RoleMember,
		Department:   GenerateRandomDepartment(),
	}

	return member, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	randomPassword := make([]rune, length)
	for i := range randomPassword {
		randomPassword[i] = letters[rand.Intn(len(letters))]
	}
	return string(randomPassword)
}

var taskStatuses = []domain.TaskStatus{
	domain.TaskStatusPending,
	domain.TaskStatusInProgress,
	domain.TaskStatusCompleted,
	domain.TaskStatusCancelled,
}

var taskPriorities = []domain.TaskPriority{
	domain.TaskPriorityLow,
	domain.TaskPriorityMedium,
	domain.TaskPriorityHigh,
	domain.TaskPriorityUrgent,
}

var taskTitles = []string{
	"整理季度报表", "更新项目文档", "准备周会材料", "检查服务器告警",
	"回复客户邮件", "审核设计稿", "修复登录问题", "清点库存",
}

// GenerateRandomTask 生成一个随机任务，状态为 completed 时会补上完成时间
func GenerateRandomTask(assignedTo int64, createdBy int64) *domain.Task {
	status := taskStatuses[rand.Intn(len(taskStatuses))]

	task := &domain.Task{
		Title:       taskTitles[rand.Intn(len(taskTitles))],
		Description: "由 seed 程序生成的演示任务 " + GenerateRandomPassword(6),
		AssignedTo:  assignedTo,
		CreatedBy:   createdBy,
		Status:      status,
		Priority:    taskPriorities[rand.Intn(len(taskPriorities))],
		DueDate:     time.Now().Add(time.Duration(rand.Intn(14)+1) * 24 * time.Hour),
	}

	if status == domain.TaskStatusCompleted {
		completedAt := time.Now().Add(-time.Duration(rand.Intn(72)) * time.Hour)
		task.CompletedAt = &completedAt
	}

	return task
}
