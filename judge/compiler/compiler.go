package compiler

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"judge_engine/common/config"
	"judge_engine/common/constants/verdict"
	"judge_engine/judge/sandbox"
	"judge_engine/lib/customfields"
	"judge_engine/lib/logger"
)

const (
	binaryFile         = "solution"
	compileMessageFile = "compile_message.txt"
)

// Compiler holds the configured toolchains. It compiles sources inside a
// sandbox and exports the produced binary out of it.
type Compiler struct {
	languages map[string]*Language

	messageHead customfields.Memory
}

type compilerConfig struct {
	// DefaultLimits apply to every language without Limits of its own.
	DefaultLimits *config.RunLimitsConfig `yaml:"DefaultLimits"`
	Languages     map[string]*Language    `yaml:"Languages"`
}

// NewCompiler reads config.yaml from the compiler configs folder. Config
// errors are fatal as no judging can happen without toolchains.
func NewCompiler(cfg *config.JudgeConfig) *Compiler {
	configPath := filepath.Join(cfg.CompilerConfigsFolder, "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		logger.Panic("Can not read compiler config %s, error: %v", configPath, err)
	}
	parsed := new(compilerConfig)
	err = yaml.Unmarshal(data, parsed)
	if err != nil {
		logger.Panic("Can not parse compiler config %s, error: %v", configPath, err)
	}
	if len(parsed.Languages) == 0 {
		logger.Panic("Compiler config %s specifies no languages", configPath)
	}

	c := &Compiler{
		languages:   make(map[string]*Language, len(parsed.Languages)),
		messageHead: cfg.SaveOutputHead,
	}
	for name, language := range parsed.Languages {
		language.Name = name
		if len(language.Command) == 0 {
			logger.Panic("Language %s has empty compile command", name)
		}
		language.fillInLimits(parsed.DefaultLimits)
		if !filepath.IsAbs(language.Command[0]) {
			resolved, err := exec.LookPath(language.Command[0])
			if err != nil {
				logger.Panic("Can not find compiler %s for language %s, error: %v",
					language.Command[0], name, err)
			}
			language.Command[0] = resolved
		}
		c.languages[name] = language
		logger.Info("Configured language %s, compiler: %s", name, language.Command[0])
	}
	return c
}

// GetLanguage returns the configured toolchain by name.
func (c *Compiler) GetLanguage(name string) (*Language, error) {
	language, ok := c.languages[name]
	if !ok {
		return nil, fmt.Errorf("can not find language %s", name)
	}
	return language, nil
}

// Result of a single compilation. Message keeps the head of the compiler
// output even on success, so warnings are not lost.
type Result struct {
	OK bool

	// Verdict is CE or JE, filled only when OK is false.
	Verdict verdict.Verdict
	Message string

	Time   customfields.Time
	Memory customfields.Memory
}

// Compile copies the source into box, runs the language toolchain and, on
// success, saves the produced binary to binaryDst. Compiler failures and
// timeouts become CE, sandbox faults become JE.
func (c *Compiler) Compile(
	ctx context.Context,
	box sandbox.ISandbox,
	language *Language,
	sourcePath string,
	binaryDst string,
) *Result {
	result := new(Result)

	sourceName := "source_" + filepath.Base(sourcePath)
	err := copyFile(sourcePath, filepath.Join(box.Dir(), sourceName), 0644)
	if err != nil {
		result.Verdict = verdict.JE
		result.Message = fmt.Sprintf("can not copy source to sandbox, error: %v", err)
		return result
	}

	execConfig := language.GenerateExecuteConfig(sourceName, binaryFile, compileMessageFile)
	execConfig.Ctx = ctx
	runResult := box.Run(execConfig)
	if runResult.Statistics != nil {
		result.Time = runResult.Statistics.Time
		result.Memory = runResult.Statistics.Memory
	}
	if runResult.Err != nil {
		result.Verdict = verdict.JE
		result.Message = fmt.Sprintf("can not run compiler, error: %v", runResult.Err)
		return result
	}

	switch runResult.Class {
	case sandbox.Completed:
		result.OK = true
		result.Message = c.readMessage(box)
	case sandbox.RuntimeError:
		result.Verdict = verdict.CE
		result.Message = c.readMessage(box)
	case sandbox.TimedOut:
		result.Verdict = verdict.CE
		result.Message = fmt.Sprintf("Compilation took more than %v time", language.Limits.TimeLimit)
	default:
		result.Verdict = verdict.JE
		result.Message = fmt.Sprintf("unknown termination class: %v", runResult.Class)
	}
	if !result.OK {
		return result
	}

	err = copyFile(filepath.Join(box.Dir(), binaryFile), binaryDst, 0755)
	if err != nil {
		result.OK = false
		result.Verdict = verdict.JE
		result.Message = fmt.Sprintf("can not save compiled binary, error: %v", err)
	}
	return result
}

func (c *Compiler) readMessage(box sandbox.ISandbox) string {
	file, err := os.Open(filepath.Join(box.Dir(), compileMessageFile))
	if err != nil {
		logger.Warn("Can not open compile message file, error: %v", err)
		return ""
	}
	defer file.Close()
	message, err := io.ReadAll(io.LimitReader(file, int64(c.messageHead.Val())))
	if err != nil {
		logger.Warn("Can not read compile message file, error: %v", err)
		return ""
	}
	return string(message)
}

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
