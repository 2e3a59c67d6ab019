package tester

import (
	"io"
	"os"
)

const (
	solutionFile   = "solution"
	testInputFile  = "input.txt"
	testOutputFile = "output.txt"
	testErrorFile  = "stderr.txt"
	testAnswerFile = "answer.txt"
)

func copyFile(src string, dst string, perm os.FileMode) error {
	srcReader, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcReader.Close()
	dstWriter, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer dstWriter.Close()
	_, err = io.Copy(dstWriter, srcReader)
	return err
}

func readFileHead(path string, limit uint64) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	head, err := io.ReadAll(io.LimitReader(file, int64(limit)))
	if err != nil {
		return "", err
	}
	return string(head), nil
}
