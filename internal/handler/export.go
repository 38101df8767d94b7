package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/exam-engine-api/internal/domain/entity"
	"github.com/yourusername/exam-engine-api/internal/service"
	"github.com/yourusername/exam-engine-api/pkg/logger"
)

var attemptExportHeaders = []string{"Студент", "Email", "Попытка", "Состояние", "Начата", "Завершена", "Длительность, мин", "Оценка", "Сдано"}

// writeAttemptsCSV выгружает попытки в CSV с правильным экранированием спецсимволов
func writeAttemptsCSV(c *gin.Context, log *logger.Logger, rows []service.AttemptRow, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	writer.Write(attemptExportHeaders)
	for _, r := range rows {
		writer.Write(attemptRecord(r))
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Error("CSV export failed", "error", err)
	}
}

// writeAttemptsXLSX выгружает попытки в Excel с использованием StreamWriter
func writeAttemptsXLSX(c *gin.Context, log *logger.Logger, evaluation *entity.Evaluation, rows []service.AttemptRow, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Попытки"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Error("Failed to create Excel stream writer", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file", "error_type": "internal"})
		return
	}

	title := []interface{}{sanitizeForExcel(evaluation.Title), fmt.Sprintf("Проходной балл: %.2f", evaluation.PassingScore)}
	if err := sw.SetRow("A1", title); err != nil {
		log.Warn("Failed to write title row", "error", err)
	}

	headers := make([]interface{}, len(attemptExportHeaders))
	for i, h := range attemptExportHeaders {
		headers[i] = h
	}
	if err := sw.SetRow("A3", headers); err != nil {
		log.Warn("Failed to write header row", "error", err)
	}

	for i, r := range rows {
		rowNum := i + 4 // 1: заголовок экзамена, 3: заголовки колонок
		record := attemptRecord(r)
		row := make([]interface{}, len(record))
		for j, v := range record {
			row[j] = v
		}
		// Числовые колонки пишем числами, чтобы Excel мог их суммировать
		row[2] = r.AttemptNumber
		if r.Score != nil {
			row[7] = *r.Score
		}
		if err := sw.SetRow(fmt.Sprintf("A%d", rowNum), row); err != nil {
			log.Warn("Failed to write row", "row", rowNum, "error", err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Error("Failed to flush Excel stream", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file", "error_type": "internal"})
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	if err := f.Write(c.Writer); err != nil {
		log.Error("Failed to write Excel response", "error", err)
	}
}

// attemptRecord формирует строку выгрузки
func attemptRecord(r service.AttemptRow) []string {
	finished := ""
	duration := ""
	if r.FinishedAt != nil {
		finished = r.FinishedAt.Format(time.RFC3339)
		duration = strconv.FormatFloat(r.Duration.Minutes(), 'f', 1, 64)
	}
	score := ""
	if r.Score != nil {
		score = strconv.FormatFloat(*r.Score, 'f', 2, 64)
	}
	passed := ""
	if r.Passed != nil {
		passed = "Нет"
		if *r.Passed {
			passed = "Да"
		}
	}
	return []string{
		sanitizeForExcel(r.StudentName),
		sanitizeForExcel(r.Email),
		strconv.Itoa(r.AttemptNumber),
		translateAttemptState(r.State),
		r.StartedAt.Format(time.RFC3339),
		finished,
		duration,
		score,
		passed,
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

// translateAttemptState переводит состояние попытки на русский
func translateAttemptState(state entity.AttemptState) string {
	switch state {
	case entity.AttemptStateInProgress:
		return "В процессе"
	case entity.AttemptStateTerminated:
		return "Завершена"
	default:
		return string(state)
	}
}
